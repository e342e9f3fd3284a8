package cli

import "partest/internal/config"

// Flags holds command-line flags
type Flags struct {
	ConfigFile       string
	WorkingDirectory string
	TestFiles        []string
	ReportDirectory  string
	ShardCount       int
	BlobName         string
	ShardsDirectory  string
	Store            string
	Processors       int
	NameFilter       string
	Shard            int
	FailFast         bool
	OnlyFailed       bool
	DryRun           bool
	ShowEstimates    bool
	Verbose          bool
}

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	return config.Flags{
		ConfigFile:       f.ConfigFile,
		WorkingDirectory: f.WorkingDirectory,
		TestFiles:        f.TestFiles,
		ReportDirectory:  f.ReportDirectory,
		ShardCount:       f.ShardCount,
		BlobName:         f.BlobName,
		ShardsDirectory:  f.ShardsDirectory,
		Store:            f.Store,
		Processors:       f.Processors,
		NameFilter:       f.NameFilter,
		Shard:            f.Shard,
		FailFast:         f.FailFast,
		OnlyFailed:       f.OnlyFailed,
		DryRun:           f.DryRun,
		ShowEstimates:    f.ShowEstimates,
		Verbose:          f.Verbose,
	}
}
