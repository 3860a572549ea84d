// Copyright © 2025 The phylo-mds authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package treeio

import (
	"fmt"
	"strings"

	"github.com/alexeid/phylo-mds/tree"
)

// readNexus reads the trees block of a nexus file.
// Only the trees block is interpreted;
// every other block is ignored.
// If the block has a translate table,
// terminal tokens are mapped through it.
func readNexus(data []byte) ([]*tree.Tree, error) {
	low := strings.ToLower(string(data))
	start := strings.Index(low, "begin trees")
	if start < 0 {
		return nil, fmt.Errorf("%w: nexus file without a trees block", ErrFormat)
	}
	end := strings.Index(low[start:], "\nend;")
	if end < 0 {
		end = strings.Index(low[start:], "\nendblock;")
	}
	block := string(data[start:])
	if end >= 0 {
		block = string(data[start : start+end])
	}

	translate, err := nexusTranslate(block)
	if err != nil {
		return nil, err
	}

	var ts []*tree.Tree
	lowBlock := strings.ToLower(block)
	for i := 0; ; {
		j := strings.Index(lowBlock[i:], "tree ")
		if j < 0 {
			break
		}
		i += j
		// skip any word ending in "tree"
		if i > 0 && !isNexusSep(lowBlock[i-1]) {
			i += 5
			continue
		}
		stmt := block[i:]
		if k := strings.IndexByte(stmt, ';'); k >= 0 {
			stmt = stmt[:k+1]
		}
		i += len(stmt)

		eq := strings.IndexByte(stmt, '=')
		if eq < 0 {
			continue
		}
		name := strings.TrimSpace(stmt[len("tree "):eq])
		name = strings.TrimPrefix(name, "*")
		name = strings.TrimSpace(name)

		nts, err := readNewick([]byte(stmt[eq+1:]), translate)
		if err != nil {
			return nil, fmt.Errorf("on tree %q: %v", name, err)
		}
		if name != "" {
			nts[0].SetName(name)
		} else {
			nts[0].SetName(fmt.Sprintf("tree-%d", len(ts)+1))
		}
		ts = append(ts, nts[0])
	}
	if len(ts) == 0 {
		return nil, fmt.Errorf("%w: trees block without trees", ErrFormat)
	}
	return ts, nil
}

func isNexusSep(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ';'
}

// nexusTranslate parses the translate table
// of a trees block,
// a comma separated list of token-name pairs
// ended by a semicolon.
func nexusTranslate(block string) (map[string]string, error) {
	low := strings.ToLower(block)
	i := strings.Index(low, "translate")
	if i < 0 {
		return nil, nil
	}
	body := block[i+len("translate"):]
	j := strings.IndexByte(body, ';')
	if j < 0 {
		return nil, fmt.Errorf("%w: unterminated translate table", ErrFormat)
	}
	body = body[:j]

	tr := make(map[string]string)
	for _, pair := range strings.Split(body, ",") {
		f := strings.Fields(pair)
		if len(f) == 0 {
			continue
		}
		if len(f) < 2 {
			return nil, fmt.Errorf("%w: invalid translate pair %q", ErrFormat, strings.TrimSpace(pair))
		}
		name := strings.Join(f[1:], " ")
		name = strings.Trim(name, "'")
		tr[f[0]] = name
	}
	return tr, nil
}
