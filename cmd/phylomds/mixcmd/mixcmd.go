// Copyright © 2025 The phylo-mds authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package mixcmd implements a command to diagnose
// the mixing of an MCMC tree sample
// with the dissonance statistic.
package mixcmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/alexeid/phylo-mds/mixing"
	"github.com/alexeid/phylo-mds/tree"
	"github.com/alexeid/phylo-mds/treeio"
	"github.com/js-arias/command"
)

var Command = &command.Command{
	Usage: `mixing [-f|--format <format>] [--splits <number>]
	[--trace <file>] [<tree-file>...]`,
	Short: "diagnose the mixing of an MCMC tree sample",
	Long: `
Command mixing reads a sample of rooted binary trees, splits it into a number
of contiguous blocks (two by default, set with the flag --splits), and grows a
conditional clade distribution for each block and for the pooled sample, one
tree per block at a time. At each step the dissonance is the entropy of the
pooled distribution minus the mean entropy of the block distributions; a well
mixed sample keeps the dissonance near zero.

One or more tree files can be given as arguments. If no file is given the
trees will be read from the standard input. By default the file format is
detected from the content of each file; use the flag --format, or -f, to set
it explicitly to one of "newick", "nexus", or "tab" (a tab-delimited timetree
collection).

The summary of the run (the final, mean, minimum, and maximum dissonance, the
dissonance relative to the final block entropy, and its interpretation) is
printed to the standard output. On two-block runs over a large tree space the
probabilities that the two blocks assign to trees sampled from both blocks are
also compared.

With the flag --trace, the per-step entropies and dissonance are written, as
tab-delimited rows, to the indicated file.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var formatFlag string
var splits int
var traceFile string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&formatFlag, "format", "auto", "")
	c.Flags().StringVar(&formatFlag, "f", "auto", "")
	c.Flags().IntVar(&splits, "splits", 2, "")
	c.Flags().StringVar(&traceFile, "trace", "", "")
}

func run(c *command.Command, args []string) error {
	ts, err := readTrees(c.Stdin(), args, treeio.Format(formatFlag))
	if err != nil {
		return err
	}

	r, err := mixing.WithinChain(ts, splits, func(step, total int) error {
		fmt.Fprintf(c.Stderr(), "\rsteps: %d of %d", step, total)
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Stderr(), "\n")

	writeResult(c.Stdout(), r)

	if traceFile != "" {
		if err := writeTrace(r); err != nil {
			return err
		}
	}
	return nil
}

func writeResult(w io.Writer, r *mixing.Result) {
	fmt.Fprintf(w, "chains: %d, steps: %d\n", r.Chains, r.Steps)
	fmt.Fprintf(w, "dissonance: final %.6g, mean %.6g, min %.6g, max %.6g\n", r.Final, r.Mean, r.Min, r.Max)
	fmt.Fprintf(w, "relative dissonance: %.6g\n", r.Relative)
	fmt.Fprintf(w, "%s\n", r.Interpretation)

	if r.Compare == nil {
		return
	}
	cmp := r.Compare
	fmt.Fprintf(w, "\nprobability comparison over %d trees:\n", cmp.Sampled)
	fmt.Fprintf(w, "higher in first half: %d, in second half: %d\n", cmp.FirstHigher, cmp.SecondHigher)
	fmt.Fprintf(w, "in one half only: %d\n", cmp.InOneOnly)
	fmt.Fprintf(w, "rms log probability difference: %.6g\n", cmp.RMSLogDiff)
	fmt.Fprintf(w, "rms relative probability difference: %.6g\n", cmp.RMSRelDiff)
}

func writeTrace(r *mixing.Result) (err error) {
	f, err := os.Create(traceFile)
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
	fmt.Fprintf(bw, "step")
	for j := 0; j < r.Chains; j++ {
		fmt.Fprintf(bw, "\tchain-%d", j+1)
	}
	fmt.Fprintf(bw, "\tpooled\tdissonance\n")
	for i := 0; i < r.Steps; i++ {
		fmt.Fprintf(bw, "%d", i+1)
		for j := 0; j < r.Chains; j++ {
			fmt.Fprintf(bw, "\t%.6g", r.ChainEntropy[j][i])
		}
		fmt.Fprintf(bw, "\t%.6g\t%.6g\n", r.PooledEntropy[i], r.Dissonance[i])
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("on file %q: %v", traceFile, err)
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
