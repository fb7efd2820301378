// Package segments aligns two samples line by line and reports identical and
// near-identical regions.
package segments

import (
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/panbanda/codesim/pkg/analyzer"
	"github.com/panbanda/codesim/pkg/models"
)

// Name identifies the matcher in diagnostics.
const Name = "segments"

// Defaults for Matcher.
const (
	DefaultMinLines            = 3
	DefaultNearIdenticalThresh = 0.9
)

// Matcher finds aligned regions between two samples.
type Matcher struct {
	MinLines  int
	Threshold float64
}

// New creates a matcher. Non-positive values select the defaults.
func New(minLines int, threshold float64) *Matcher {
	if minLines < 1 {
		minLines = DefaultMinLines
	}
	if threshold <= 0 {
		threshold = DefaultNearIdenticalThresh
	}
	return &Matcher{MinLines: minLines, Threshold: threshold}
}

// Result holds the segments found in one alignment.
type Result struct {
	Identical     []models.Segment
	NearIdentical []models.Segment
	Coverage      models.Coverage
}

// Find aligns source and target. Equal runs of at least MinLines lines are
// identical segments; replaced runs whose source side spans at least
// MinLines lines and whose character-level ratio reaches Threshold are
// near-identical. Both lists follow source order.
func (m *Matcher) Find(source, target string) Result {
	a, b := analyzer.SplitLines(source), analyzer.SplitLines(target)
	res := Result{
		Identical:     []models.Segment{},
		NearIdentical: []models.Segment{},
	}
	srcCovered, dstCovered := roaring.New(), roaring.New()

	for _, op := range difflib.NewMatcher(a, b).GetOpCodes() {
		span := op.I2 - op.I1
		if span < m.MinLines {
			continue
		}
		switch op.Tag {
		case 'e':
			res.Identical = append(res.Identical, models.Segment{
				SourceStart: op.I1 + 1,
				SourceEnd:   op.I2,
				TargetStart: op.J1 + 1,
				TargetEnd:   op.J2,
				Lines:       span,
				Content:     strings.Join(a[op.I1:op.I2], "\n"),
			})
		case 'r':
			ratio := analyzer.EditRatio(strings.Join(a[op.I1:op.I2], "\n"), strings.Join(b[op.J1:op.J2], "\n"))
			if ratio < m.Threshold {
				continue
			}
			res.NearIdentical = append(res.NearIdentical, models.Segment{
				SourceStart: op.I1 + 1,
				SourceEnd:   op.I2,
				TargetStart: op.J1 + 1,
				TargetEnd:   op.J2,
				Lines:       span,
				Similarity:  ratio,
			})
		default:
			continue
		}
		srcCovered.AddRange(uint64(op.I1), uint64(op.I2))
		dstCovered.AddRange(uint64(op.J1), uint64(op.J2))
	}

	res.Coverage = models.Coverage{
		Source: fraction(srcCovered, len(a)),
		Target: fraction(dstCovered, len(b)),
	}
	return res
}

func fraction(covered *roaring.Bitmap, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(covered.GetCardinality()) / float64(total)
}
