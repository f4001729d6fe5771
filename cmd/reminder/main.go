package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/example/saferides/internal/models"
	"github.com/example/saferides/internal/notify"
)

var (
	msgsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reminder_messages_consumed_total",
		Help: "Total scheduled-ride events consumed",
	})
	msgsInvalid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reminder_messages_invalid_total",
		Help: "Total invalid events received",
	})
	remindersScheduled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reminder_notifications_scheduled_total",
		Help: "Total reminders scheduled with the push gateway",
	})
	remindersSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reminder_notifications_skipped_total",
		Help: "Total events skipped (duplicate, cancelled, or too late)",
	})
	remindersFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reminder_notifications_failed_total",
		Help: "Total reminders that failed after retries",
	})
)

func init() {
	prometheus.MustRegister(msgsConsumed, msgsInvalid, remindersScheduled, remindersSkipped, remindersFailed)
}

func main() {
	// allow some flags for local runs
	var metricsAddr string
	var lead time.Duration
	flag.StringVar(&metricsAddr, "metrics-addr", ":2112", "address to serve prometheus metrics on")
	flag.DurationVar(&lead, "lead", 15*time.Minute, "how long before departure the reminder fires")
	flag.Parse()

	brokersEnv := os.Getenv("KAFKA_BROKERS")
	brokers := []string{"localhost:9092"}
	if brokersEnv != "" {
		brokers = brokers[:0]
		for _, b := range strings.Split(brokersEnv, ",") {
			if s := strings.TrimSpace(b); s != "" {
				brokers = append(brokers, s)
			}
		}
	}

	topic := os.Getenv("KAFKA_SCHEDULE_TOPIC")
	if topic == "" {
		topic = "scheduled-rides"
	}
	group := os.Getenv("KAFKA_GROUP")
	if group == "" {
		group = "saferides-reminder"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	rc := redis.NewClient(&redis.Options{Addr: redisAddr})

	pushEndpoint := os.Getenv("PUSH_ENDPOINT")
	if pushEndpoint == "" {
		log.Fatal("PUSH_ENDPOINT must be set")
	}
	pusher := notify.NewHTTPPush(pushEndpoint, os.Getenv("PUSH_KEY"))

	// start metrics and health server
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			if err := rc.Ping(r.Context()).Err(); err != nil {
				http.Error(w, "redis not ready", 503)
				return
			}
			w.WriteHeader(200)
			w.Write([]byte("ready"))
		})
		log.Printf("metrics/health listening on %s", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := kafka.NewReader(kafka.ReaderConfig{Brokers: brokers, Topic: topic, GroupID: group, MinBytes: 10e3, MaxBytes: 10e6})
	defer func() {
		_ = r.Close()
		_ = rc.Close()
	}()

	log.Printf("reminder worker listening topic=%s brokers=%v group=%s", topic, brokers, group)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("shutting down reminder worker")
				return
			}
			log.Printf("kafka read error: %v; backing off %s", err, backoff)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		// reset backoff on success
		backoff = time.Second

		msgsConsumed.Inc()

		var ev models.ScheduledRide
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			msgsInvalid.Inc()
			log.Printf("invalid event: %v", err)
			continue
		}

		if ev.Status != models.ScheduleUpcoming {
			remindersSkipped.Inc()
			continue
		}
		remindAt := ev.ScheduledFor.Add(-lead)
		if remindAt.Before(time.Now()) {
			remindersSkipped.Inc()
			continue
		}

		// dedupe: a scheduled ride may be republished on replay
		ok, err := rc.SetNX(ctx, "reminder:"+ev.ID, 1, 48*time.Hour).Result()
		if err == nil && !ok {
			remindersSkipped.Inc()
			continue
		}

		if err := scheduleWithRetry(ctx, pusher, &ev, remindAt, 3, 200*time.Millisecond); err != nil {
			remindersFailed.Inc()
			log.Printf("reminder failed for ride=%s: %v", ev.ID, err)
			continue
		}
		remindersScheduled.Inc()
	}
}

// scheduleWithRetry schedules the reminder with bounded retry/backoff.
func scheduleWithRetry(ctx context.Context, s notify.Scheduler, ev *models.ScheduledRide, at time.Time, attempts int, delay time.Duration) error {
	payload := map[string]any{
		"ride_id":     ev.ID,
		"title":       "Upcoming SafeRide",
		"body":        "Your ride to " + ev.Destination.Name + " leaves soon",
		"destination": ev.Destination.Name,
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if _, err := s.ScheduleAt(ctx, at, payload); err != nil {
			lastErr = err
			if i == attempts-1 {
				return err
			}
			time.Sleep(delay)
			delay *= 2
			continue
		}
		return nil
	}
	return lastErr
}
