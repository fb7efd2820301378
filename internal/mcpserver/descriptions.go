package mcpserver

// Tool descriptions with interpretation guidance for LLMs.

func describeCompareCode() string {
	return `Compares two code samples and reports how similar they are.

USE WHEN:
- Checking whether a snippet was copied or lightly edited from another
- Judging if two implementations share structure despite renamed identifiers

INTERPRETING RESULTS:
- overall_similarity is the weighted mean of token, structural and ast scores (0.0-1.0)
- token_similarity drops with renamed identifiers; structural and ast scores do not
- Above 0.8 overall: likely the same code with cosmetic edits
- identical_segments and near_identical_segments locate shared line ranges (1-indexed)
- diagnostics list scorers that failed and fell back to their default score;
  a report whose scores are all 0 with diagnostics is inconclusive, not dissimilar

METRICS RETURNED:
- Scores: overall, token, structural, ast, optional ml
- Segments: identical and near-identical line ranges, coverage per side
- code_metrics: loc, lloc, sloc, comments, blank lines and complexity per side`
}

func describeCompareFiles() string {
	return `Compares two files on disk, optionally reading either side from a git revision.

USE WHEN:
- Comparing a file against another file in the repository
- Checking how far a file drifted from an earlier revision (source_rev / target_rev)

INTERPRETING RESULTS:
- Same fields as compare_code, plus the resolved source and target labels
- Language is detected from the source extension unless given

METRICS RETURNED:
- source, target, cached flag and the full similarity report`
}

func describeCompareMatrix() string {
	return `Compares every pair of same-language files under the given paths.

USE WHEN:
- Looking for duplicated files across a codebase
- Screening a set of submissions for near copies

INTERPRETING RESULTS:
- Pairs are sorted by overall similarity, most similar first
- Only pairs at or above min_similarity are listed; the summary covers all pairs
- P50 and P95 describe the distribution of overall scores across all pairs

METRICS RETURNED:
- Pairs: source, target, language, overall similarity, mean coverage
- Summary: file and pair counts, average, P50, P95 and max similarity`
}

func describeListLanguages() string {
	return `Lists the languages codesim understands and how each is compared.

USE WHEN:
- Checking which language tag to pass to compare_code
- Finding out whether ast scores use the native tree or function summaries

INTERPRETING RESULTS:
- ast_strategy native: ast score compares the node sequence of both trees
- ast_strategy generic: ast score compares per-function complexity summaries

METRICS RETURNED:
- Per language: tag, ast strategy, file extensions
- Weights of the overall score and the ML model state`
}
