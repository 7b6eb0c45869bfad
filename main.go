/*
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"github.com/nandlab/fabric-escrow-auction/cmd"
)

func main() {
	cmd.Execute()
}
