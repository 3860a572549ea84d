// Copyright © 2025 The phylo-mds authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package mdscmd implements a command to project
// a sample of phylogenetic trees
// into a two dimensional tree space.
package mdscmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/alexeid/phylo-mds/distance"
	"github.com/alexeid/phylo-mds/mds"
	"github.com/alexeid/phylo-mds/tree"
	"github.com/alexeid/phylo-mds/treeio"
	"github.com/js-arias/command"
)

var Command = &command.Command{
	Usage: `mds [-f|--format <format>] [-m|--metric <metric>]
	[--burnin <value>] [--max-trees <number>] [--seed <number>]
	[--distances <file>] [--plot <file>] [-o|--output <file>]
	[<tree-file>...]`,
	Short: "project a tree sample into a two dimensional tree space",
	Long: `
Command mds reads a sample of rooted binary trees, measures the pairwise
distances between the trees, and projects the trees into two dimensions with
classical multidimensional scaling.

One or more tree files can be given as arguments. If no file is given the
trees will be read from the standard input. By default the file format is
detected from the content of each file; use the flag --format, or -f, to set
it explicitly to one of "newick", "nexus", or "tab" (a tab-delimited timetree
collection).

The distance metric is selected with the flag --metric, or -m: "rf" for the
Robinson-Foulds distance (the default), "spr" for the approximate subtree
prune and regraft distance (half the RF distance, rounded up), or "path" for
the mean path length difference.

The flag --burnin sets the fraction of the sample, from the start, to be
discarded before the analysis. If more trees remain than the value of the
flag --max-trees (1000 by default, zero to keep all trees), a random subset
of that size is drawn; the flag --seed sets the seed of the random drawing,
so a run can be reproduced.

The projected coordinates are printed as tab-delimited rows (tree label and
the two coordinates) to the standard output, or to the file given with the
flag --output, or -o. With the flag --distances, the distance matrix is also
written, as tab-delimited rows, to the indicated file. With the flag --plot,
the projection is saved as a scatter plot to the indicated file, in the image
format given by its extension (e.g. ".png"); the points are colored by the position of the tree in the sample, so
trends along the chain are visible.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var formatFlag string
var metricFlag string
var burnin float64
var maxTrees int
var seed int64
var distFile string
var plotFile string
var output string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&formatFlag, "format", "auto", "")
	c.Flags().StringVar(&formatFlag, "f", "auto", "")
	c.Flags().StringVar(&metricFlag, "metric", "rf", "")
	c.Flags().StringVar(&metricFlag, "m", "rf", "")
	c.Flags().Float64Var(&burnin, "burnin", 0, "")
	c.Flags().IntVar(&maxTrees, "max-trees", 1000, "")
	c.Flags().Int64Var(&seed, "seed", 1, "")
	c.Flags().StringVar(&distFile, "distances", "", "")
	c.Flags().StringVar(&plotFile, "plot", "", "")
	c.Flags().StringVar(&output, "output", "", "")
	c.Flags().StringVar(&output, "o", "", "")
}

func run(c *command.Command, args []string) error {
	metric, err := distance.ParseMetric(metricFlag)
	if err != nil {
		return c.UsageError(err.Error())
	}
	ts, err := readTrees(c.Stdin(), args, treeio.Format(formatFlag))
	if err != nil {
		return err
	}

	pr, err := mds.Pipeline(ts, metric, maxTrees, burnin, seed, func(i, j, n int) error {
		fmt.Fprintf(c.Stderr(), "\rdistances: %d of %d trees", i+1, n)
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Stderr(), "\rdistances: %d of %d trees\n", pr.Summary.Sampled, pr.Summary.Sampled)

	if err := writeCoords(c.Stdout(), pr); err != nil {
		return err
	}
	if distFile != "" {
		if err := writeDistances(pr); err != nil {
			return err
		}
	}
	if plotFile != "" {
		if err := plotCoords(pr); err != nil {
			return fmt.Errorf("on plot file %q: %v", plotFile, err)
		}
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

func writeCoords(w io.Writer, pr *mds.Projection) (err error) {
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer func() {
			e := f.Close()
			if e != nil && err == nil {
				err = e
			}
		}()
		w = f
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# tree space projection: %d of %d trees, %q distances\n", pr.Summary.Sampled, pr.Summary.Trees, pr.Summary.Metric)
	fmt.Fprintf(bw, "# distance min %.6g, mean %.6g, max %.6g\n", pr.Summary.MinDist, pr.Summary.MeanDist, pr.Summary.MaxDist)
	fmt.Fprintf(bw, "tree\tx\ty\n")
	for i, p := range pr.Points {
		fmt.Fprintf(bw, "%s\t%.6g\t%.6g\n", pr.Labels[i], p.X, p.Y)
	}
	return bw.Flush()
}

func writeDistances(pr *mds.Projection) (err error) {
	f, err := os.Create(distFile)
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
	for _, l := range pr.Labels {
		fmt.Fprintf(bw, "\t%s", l)
	}
	fmt.Fprintf(bw, "\n")
	for i, l := range pr.Labels {
		fmt.Fprintf(bw, "%s", l)
		for j := range pr.Labels {
			fmt.Fprintf(bw, "\t%.6g", pr.Dist.At(i, j))
		}
		fmt.Fprintf(bw, "\n")
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("on file %q: %v", distFile, err)
	}
	return nil
}
