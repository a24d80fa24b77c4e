package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chronicle_registrations_total",
		Help: "Total number of successful user registrations.",
	})

	tokenVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chronicle_token_verifications_total",
			Help: "Total number of access token verification attempts by status.",
		},
		[]string{"status"},
	)

	storiesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chronicle_stories_created_total",
		Help: "Total number of stories created.",
	})

	messagesSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chronicle_messages_sent_total",
		Help: "Total number of chat messages posted by users.",
	})

	narratorInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chronicle_narrator_invocations_total",
			Help: "Total number of narrator invocations by status.",
		},
		[]string{"status"},
	)

	sceneImagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chronicle_scene_images_total",
			Help: "Total number of scene image generations by status.",
		},
		[]string{"status"},
	)

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chronicle_ws_connections_active",
		Help: "Number of currently open websocket connections.",
	})
)
