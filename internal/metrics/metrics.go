// Package metrics holds the Prometheus collectors for the ticket lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TicketsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketbot_tickets_created_total",
		Help: "Tickets created from entry-point embeds.",
	})

	// TicketsClosed is labelled by reason: admin, auto, stale, session_clear.
	TicketsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketbot_tickets_closed_total",
		Help: "Tickets moved to a terminal status.",
	}, []string{"reason"})

	RemindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketbot_reminders_sent_total",
		Help: "Reminder messages posted by the sweep.",
	})

	SelectionsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketbot_selections_received_total",
		Help: "Package selections reconciled via the webhook.",
	})

	SweepErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketbot_sweep_errors_total",
		Help: "Reminder sweep passes that reported an error.",
	})
)
