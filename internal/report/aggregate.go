package report

import "partest/internal/domain"

// GroupByFile sums the time and counts the test cases of each file,
// in the order files first appear
func GroupByFile(cases []TestCase) []domain.HistoricalTestFile {
	index := make(map[string]int)
	var files []domain.HistoricalTestFile
	for _, tc := range cases {
		i, ok := index[tc.File]
		if !ok {
			i = len(files)
			index[tc.File] = i
			files = append(files, domain.HistoricalTestFile{Path: tc.File})
		}
		files[i].TotalTime += tc.Time
		files[i].TotalTestCases++
	}
	return files
}

// AverageRuns merges the records of several runs. A file's values are divided
// by the number of runs that reported it, not by the total number of runs.
func AverageRuns(runs [][]domain.HistoricalTestFile) []domain.HistoricalTestFile {
	index := make(map[string]int)
	var files []domain.HistoricalTestFile
	var occurrences []int
	for _, run := range runs {
		for _, f := range run {
			i, ok := index[f.Path]
			if !ok {
				i = len(files)
				index[f.Path] = i
				files = append(files, domain.HistoricalTestFile{Path: f.Path})
				occurrences = append(occurrences, 0)
			}
			files[i].TotalTime += f.TotalTime
			files[i].TotalTestCases += f.TotalTestCases
			occurrences[i]++
		}
	}
	for i := range files {
		files[i].TotalTime /= float64(occurrences[i])
		files[i].TotalTestCases /= float64(occurrences[i])
	}
	return files
}
