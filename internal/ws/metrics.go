package ws

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActiveRooms = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ludo_rooms_active",
		Help: "Rooms currently held by the hub",
	})
	QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ludo_queue_depth",
		Help: "Entries waiting in the matchmaking queue",
	})
	DiceRolls = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ludo_dice_rolls_total",
		Help: "Accepted dice rolls",
	})
	Captures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ludo_captures_total",
		Help: "Pieces sent back to base by a capture",
	})
	GamesCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ludo_games_completed_total",
		Help: "Rooms that reached the completed state",
	})
)

func init() {
	prometheus.MustRegister(ActiveRooms, QueueDepth, DiceRolls, Captures, GamesCompleted)
}
