package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"MarsAI_Festival/internal/model"
	"MarsAI_Festival/internal/pkg"

	"github.com/segmentio/kafka-go"
)

// Sender 投递一条 outbox 事件
type Sender func(ctx context.Context, ob *model.FilmOutbox) error

// OutboxRelayer 定时把 film_outbox 里的事件交给各个 sender
type OutboxRelayer struct {
	repo      OutboxStore
	batchSize int
	interval  time.Duration
	senders   []Sender
	log       *slog.Logger
}

func NewOutboxRelayer(repo OutboxStore, batchSize int, interval time.Duration, log *slog.Logger, senders ...Sender) *OutboxRelayer {
	if batchSize <= 0 {
		batchSize = 200
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &OutboxRelayer{
		repo:      repo,
		batchSize: batchSize,
		interval:  interval,
		senders:   senders,
		log:       log,
	}
}

// Run outbox启动器
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

// drainOnce 任一 sender 失败则整条记为失败并累加重试次数，下轮重投
func (r *OutboxRelayer) drainOnce(ctx context.Context) int {
	rows, err := r.repo.List(ctx, r.batchSize)
	if err != nil {
		r.log.ErrorContext(ctx, "outbox query", slog.Any("error", err))
		return 0
	}
	sent := 0
	for i := range rows {
		ob := rows[i]
		if err = r.deliver(ctx, &ob); err != nil {
			r.log.WarnContext(ctx, "outbox deliver failed",
				slog.Uint64("outbox_id", ob.ID), slog.String("event", ob.EventType),
				slog.Int("retry", ob.Retry), slog.Any("error", err))
			if uerr := r.repo.RetryUpdate(ctx, ob.ID); uerr != nil {
				r.log.ErrorContext(ctx, "outbox mark failed", slog.Uint64("outbox_id", ob.ID), slog.Any("error", uerr))
			}
			continue
		}
		if uerr := r.repo.SuccessUpdate(ctx, ob.ID); uerr != nil {
			r.log.ErrorContext(ctx, "outbox mark sent", slog.Uint64("outbox_id", ob.ID), slog.Any("error", uerr))
			continue
		}
		sent++
	}
	return sent
}

func (r *OutboxRelayer) deliver(ctx context.Context, ob *model.FilmOutbox) error {
	for _, send := range r.senders {
		if err := send(ctx, ob); err != nil {
			return err
		}
	}
	return nil
}

// LogSender 没有配置 Kafka 时的默认 sender
func LogSender(log *slog.Logger) Sender {
	return func(ctx context.Context, ob *model.FilmOutbox) error {
		log.InfoContext(ctx, "outbox event",
			slog.String("event", ob.EventType), slog.Uint64("film_id", ob.FilmID), slog.String("payload", ob.Payload))
		return nil
	}
}

// EventProducer 由 pkg.KafkaProducer 实现
type EventProducer interface {
	Send(ctx context.Context, key string, value []byte, headers ...kafka.Header) error
}

// KafkaSender 以影片 id 为 key 发布事件
func KafkaSender(p EventProducer) Sender {
	return func(ctx context.Context, ob *model.FilmOutbox) error {
		return p.Send(ctx, pkg.MakeKeyFromID(ob.FilmID), []byte(ob.Payload),
			kafka.Header{Key: "event_type", Value: []byte(ob.EventType)})
	}
}

// filmEventPayload 与仓储层写入的 JSON 对应
type filmEventPayload struct {
	FilmID          uint64 `json:"film_id"`
	Title           string `json:"title"`
	RejectionReason string `json:"rejection_reason"`
	Director        struct {
		Firstname string `json:"firstname"`
		Lastname  string `json:"lastname"`
		Email     string `json:"email"`
	} `json:"director"`
}

// MailSender 给导演发投稿确认、通过、拒绝通知；其他事件忽略
func MailSender(m Mailer) Sender {
	return func(ctx context.Context, ob *model.FilmOutbox) error {
		var p filmEventPayload
		if err := json.Unmarshal([]byte(ob.Payload), &p); err != nil {
			return fmt.Errorf("decode outbox payload %d: %w", ob.ID, err)
		}
		d := pkg.FilmMail{
			To:        p.Director.Email,
			Firstname: p.Director.Firstname,
			Lastname:  p.Director.Lastname,
			Title:     p.Title,
			Reason:    p.RejectionReason,
		}
		switch ob.EventType {
		case model.EventFilmSubmitted:
			return m.SendSubmissionConfirmation(ctx, d)
		case model.EventFilmApproved:
			return m.SendApproval(ctx, d)
		case model.EventFilmRejected:
			return m.SendRejection(ctx, d)
		}
		return nil
	}
}
