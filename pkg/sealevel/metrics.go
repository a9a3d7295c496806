package sealevel

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stakeInstructionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stake",
		Subsystem: "program",
		Name:      "instructions_total",
		Help:      "Stake program instructions executed, by instruction and result",
	}, []string{"instruction", "result"})

	activationEpochsWalked = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "stake",
		Name:      "activation_epochs_walked",
		Help:      "Stake history epochs walked per activation status computation",
		Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64, 128, 256, 512},
	})
)

func recordStakeInstruction(instruction string, err error) {
	result := "ok"
	if err != nil {
		result = err.Error()
	}
	stakeInstructionsTotal.WithLabelValues(instruction, result).Inc()
}
