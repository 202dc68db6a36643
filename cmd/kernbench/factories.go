package main

import (
	"kernbench/internal/benchmark"
	"kernbench/internal/config"
	"kernbench/internal/db"
	"kernbench/internal/workload"
)

var (
	storeFactory = func(s *config.Settings) (db.Store, error) {
		return db.Open(s.HistoryType, s.HistoryDSN)
	}

	// isolatorExec builds worker processes; nil means exec.CommandContext.
	isolatorExec benchmark.ExecFunc

	invokerFactory = func() *workload.Invoker { return &workload.Invoker{} }
)
