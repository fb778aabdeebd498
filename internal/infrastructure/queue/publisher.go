package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const bookingEventsQueue = "booking.events"

// BookingEvent は予約のライフサイクルイベントを表す
// 下流のコンシューマーが通知や分析に使うための最小限の情報を持つ
type BookingEvent struct {
	BookingID   string    `json:"booking_id"`
	ShowID      string    `json:"show_id"`
	Status      string    `json:"status"`
	SeatNumbers []int     `json:"seat_numbers"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher はRabbitMQへ予約イベントを発行する
// 発行は常にベストエフォートで、失敗しても呼び出し元の処理は継続される
// EventPublisher は予約イベントの発行を定義する
type EventPublisher interface {
	Publish(ctx context.Context, event BookingEvent) error
}

type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

var _ EventPublisher = (*Publisher)(nil)

// NewPublisher はブローカーに接続しキューを宣言する
func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("ブローカー接続に失敗: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("チャンネル作成に失敗: %w", err)
	}
	// durable なキューを宣言（冪等）
	if _, err := ch.QueueDeclare(bookingEventsQueue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("キュー宣言に失敗: %w", err)
	}
	return &Publisher{conn: conn, ch: ch}, nil
}

// Publish は予約イベントを発行する
func (p *Publisher) Publish(ctx context.Context, event BookingEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("イベント変換に失敗: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, "", bookingEventsQueue, false, false, pub); err != nil {
		return fmt.Errorf("イベント発行に失敗: %w", err)
	}
	return nil
}

// Close は接続を閉じる
func (p *Publisher) Close() error {
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
