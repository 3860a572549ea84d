// Copyright © 2025 The phylo-mds authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// PhyloMDS is a tool for the analysis
// of posterior samples of phylogenetic trees.
package main

import (
	"github.com/alexeid/phylo-mds/cmd/phylomds/ccdcmd"
	"github.com/alexeid/phylo-mds/cmd/phylomds/mdscmd"
	"github.com/alexeid/phylo-mds/cmd/phylomds/mixcmd"
	"github.com/js-arias/command"
)

var app = &command.Command{
	Usage: "phylomds <command> [<argument>...]",
	Short: "a tool for the analysis of posterior samples of phylogenetic trees",
}

func init() {
	app.Add(mdscmd.Command)
	app.Add(ccdcmd.Command)
	app.Add(mixcmd.Command)
}

func main() {
	app.Main()
}
