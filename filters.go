package ortho

// In-memory filters applied to one ortholog group at a time. Every
// function mutates the group in place and reports what it removed, so
// the driver can log rejections per stage.

// FilterShort deletes records with fewer than min residues.
func FilterShort(g *Group, min int) (removed int) {
	kept := g.Records[:0]
	for _, rec := range g.Records {
		if rec.Residues() >= min {
			kept = append(kept, rec)
		} else {
			removed++
		}
	}
	g.Records = kept
	return removed
}

// Dedup collapses records that share a taxon code and carry identical
// residues, keeping the first representative seen.
func Dedup(g *Group) (removed int) {
	seen := make(map[string]bool)
	kept := g.Records[:0]
	for _, rec := range g.Records {
		key := rec.Header.Taxon + "\x00" + string(rec.Seq)
		if seen[key] {
			removed++
			continue
		}
		seen[key] = true
		kept = append(kept, rec)
	}
	g.Records = kept
	return removed
}

// TrimLeadingAmbiguity cuts each sequence through the last ambiguity
// marker found within its first window residues. Everything before and
// including that marker is removed.
func TrimLeadingAmbiguity(g *Group, window int) (trimmed int) {
	for i := range g.Records {
		s := g.Records[i].Seq
		cut := -1
		res := 0
		for j := 0; j < len(s) && res < window; j++ {
			if s[j] == GapByte {
				continue
			}
			if s[j] == AmbiguousByte {
				cut = j
			}
			res++
		}
		if cut >= 0 {
			g.Records[i].Seq = s[cut+1:]
			trimmed++
		}
	}
	return trimmed
}

// TrimTrailingAmbiguity is the mirror image of TrimLeadingAmbiguity,
// applied to the sequence end.
func TrimTrailingAmbiguity(g *Group, window int) (trimmed int) {
	for i := range g.Records {
		s := g.Records[i].Seq
		cut := -1
		res := 0
		for j := len(s) - 1; j >= 0 && res < window; j-- {
			if s[j] == GapByte {
				continue
			}
			if s[j] == AmbiguousByte {
				cut = j
			}
			res++
		}
		if cut >= 0 {
			g.Records[i].Seq = s[:cut]
			trimmed++
		}
	}
	return trimmed
}

// MaskStrayFragments replaces residue runs of length <= maxRun that are
// flanked on both sides by gap runs of length >= minFlank with gaps of
// equal length. Such stranded fragments are misalignments, not real
// homologous segments. Runs carrying an ambiguity marker are left
// alone. The scan is left to right; a replaced run merges into the
// left flank of the next one. Sequence ends are not flanks.
func MaskStrayFragments(g *Group, maxRun, minFlank int) (masked int) {
	for i := range g.Records {
		masked += maskStray(g.Records[i].Seq, maxRun, minFlank)
	}
	return masked
}

func maskStray(s []byte, maxRun, minFlank int) (masked int) {
	type span struct {
		gap        bool
		ambig      bool
		start, end int
	}
	var runs []span
	for i := 0; i < len(s); {
		j := i
		gap := s[i] == GapByte
		ambig := false
		for j < len(s) && (s[j] == GapByte) == gap {
			if s[j] == AmbiguousByte {
				ambig = true
			}
			j++
		}
		runs = append(runs, span{gap: gap, ambig: ambig, start: i, end: j})
		i = j
	}

	leftGap := 0
	for k, r := range runs {
		if r.gap {
			leftGap += r.end - r.start
			continue
		}
		rightGap := 0
		if k+1 < len(runs) && runs[k+1].gap {
			rightGap = runs[k+1].end - runs[k+1].start
		}
		n := r.end - r.start
		if !r.ambig && n <= maxRun && leftGap >= minFlank && rightGap >= minFlank {
			for j := r.start; j < r.end; j++ {
				s[j] = GapByte
			}
			leftGap += n
			masked++
		} else {
			leftGap = 0
		}
	}
	return masked
}

// RemoveSparseColumns drops every alignment column whose count of
// non-gap residues is at most maxSupport. The cutoff is an absolute
// count, independent of group size. Re-running on the output removes
// nothing further.
func RemoveSparseColumns(g *Group, maxSupport int) (removed int, err error) {
	n, err := g.AlignedLen()
	if err != nil || n == 0 {
		return 0, err
	}

	support := make([]int, n)
	for _, rec := range g.Records {
		for j, b := range rec.Seq {
			if b != GapByte {
				support[j]++
			}
		}
	}

	keep := make([]bool, n)
	width := 0
	for j, c := range support {
		if c > maxSupport {
			keep[j] = true
			width++
		} else {
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}

	for i := range g.Records {
		out := make([]byte, 0, width)
		for j, b := range g.Records[i].Seq {
			if keep[j] {
				out = append(out, b)
			}
		}
		g.Records[i].Seq = out
	}
	return removed, nil
}

// FilterDivergent keeps records whose similarity to the alignment
// consensus is at or above min percent. The boundary is inclusive.
// Records missing from the report are dropped, matching the behavior
// of selecting retained names out of the reporter output.
func FilterDivergent(g *Group, similarity map[string]float64, min float64) (removed int) {
	kept := g.Records[:0]
	for _, rec := range g.Records {
		sim, found := similarity[rec.Header.Safe()]
		if found && sim >= min {
			kept = append(kept, rec)
		} else {
			removed++
		}
	}
	g.Records = kept
	return removed
}
