// Copyright © 2025 The phylo-mds authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package ccdcmd implements a command to summarize
// a sample of phylogenetic trees
// as a conditional clade distribution.
package ccdcmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alexeid/phylo-mds/ccd"
	"github.com/alexeid/phylo-mds/tree"
	"github.com/alexeid/phylo-mds/treeio"
	"github.com/js-arias/command"
)

var Command = &command.Command{
	Usage: `ccd [-f|--format <format>] [--burnin <value>]
	[--tree <file>] [<tree-file>...]`,
	Short: "summarize a tree sample as a conditional clade distribution",
	Long: `
Command ccd reads a sample of rooted binary trees, builds a conditional clade
distribution from the clade frequencies of the sample, and prints a summary
of the distribution: the number of trees, taxa, and distinct clades, the
phylogenetic entropy (in its partition form and in the recursive form of
Lewis et al.), the probability of the most probable tree, and the non-trivial
clades with the highest marginal probability.

One or more tree files can be given as arguments. If no file is given the
trees will be read from the standard input. By default the file format is
detected from the content of each file; use the flag --format, or -f, to set
it explicitly to one of "newick", "nexus", or "tab" (a tab-delimited timetree
collection).

The flag --burnin sets the fraction of the sample, from the start, to be
discarded before the distribution is built.

With the flag --tree, the most probable tree of the distribution is written,
in newick format and with the mean observed clade heights as node heights, to
the indicated file.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var formatFlag string
var burnin float64
var treeFile string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&formatFlag, "format", "auto", "")
	c.Flags().StringVar(&formatFlag, "f", "auto", "")
	c.Flags().Float64Var(&burnin, "burnin", 0, "")
	c.Flags().StringVar(&treeFile, "tree", "", "")
}

func run(c *command.Command, args []string) error {
	ts, err := readTrees(c.Stdin(), args, treeio.Format(formatFlag))
	if err != nil {
		return err
	}

	d, err := ccd.FromTreesProgress(ts, burnin, func(done, total int) error {
		fmt.Fprintf(c.Stderr(), "\rtrees: %d of %d", done, total)
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Stderr(), "\n")

	writeStats(c.Stdout(), d.Statistics())

	if treeFile != "" {
		mt, err := d.MaxTree()
		if err != nil {
			return err
		}
		if err := writeTree(mt); err != nil {
			return err
		}
	}
	return nil
}

func writeStats(w io.Writer, st ccd.Statistics) {
	fmt.Fprintf(w, "trees:  %d\n", st.Trees)
	fmt.Fprintf(w, "taxa:   %d\n", st.Leaves)
	fmt.Fprintf(w, "clades: %d\n", st.Clades)
	fmt.Fprintf(w, "entropy: %.6g (Lewis: %.6g)\n", st.Entropy, st.EntropyLewis)
	fmt.Fprintf(w, "max tree probability: %.6g (log: %.6g)\n", st.MaxTreeProbability, st.MaxLogTreeProbability)
	if len(st.TopClades) == 0 {
		return
	}
	fmt.Fprintf(w, "\nprob\ttrees\tmean-height\ttaxa\n")
	for _, cl := range st.TopClades {
		fmt.Fprintf(w, "%.6g\t%d\t%.6g\t%s\n", cl.Probability, cl.Occurrences, cl.MeanHeight, strings.Join(cl.Taxa, " "))
	}
}

func writeTree(t *tree.Tree) (err error) {
	f, err := os.Create(treeFile)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	bw := bufio.NewWriter(f)
	fmt.Fprintf(bw, "%s\n", treeio.NewickString(t))
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("on file %q: %v", treeFile, err)
	}
	return nil
}

func readTrees(stdin io.Reader, files []string, f treeio.Format) ([]*tree.Tree, error) {
	if len(files) == 0 {
		files = append(files, "-")
	}
	var ts []*tree.Tree
	for _, fn := range files {
		nt, err := readTreeFile(stdin, fn, f)
		if err != nil {
			return nil, err
		}
		ts = append(ts, nt...)
	}
	return ts, nil
}

func readTreeFile(stdin io.Reader, name string, f treeio.Format) ([]*tree.Tree, error) {
	r := stdin
	if name != "-" {
		file, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		r = file
	} else {
		name = "stdin"
	}

	ts, err := treeio.Read(r, f)
	if err != nil {
		return nil, fmt.Errorf("while reading file %q: %v", name, err)
	}
	return ts, nil
}
