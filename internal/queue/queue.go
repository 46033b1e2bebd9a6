// Package queue 通过 RabbitMQ 传递缓存重算任务
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
)

// Declare 声明持久化队列，api 和 worker 启动时都会调用
func Declare(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,  // 队列名称
		true,  // 是否持久化
		false, // 是否自动删除
		false, // 是否独占
		false, // 是否不等待
		nil,   // 额外参数
	)
}

// Channel 是 Publisher 用到的通道方法，*amqp.Channel 直接满足
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Publisher struct {
	ch      Channel
	queue   string
	timeout time.Duration
}

func NewPublisher(ch Channel, queue string, timeout time.Duration) *Publisher {
	return &Publisher{ch: ch, queue: queue, timeout: timeout}
}

func (p *Publisher) Publish(ctx context.Context, job *domain.RecalcJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.ch.PublishWithContext(
		ctx,
		"",
		p.queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    job.JobID.String(),
			Timestamp:    job.RequestedAt,
			Body:         body,
		},
	)
}

// Runner 执行重算任务，由 cache.Recalculator 实现
type Runner interface {
	RecalculateCache(ctx context.Context, timelineIDs, vacancyIDs []int64) error
}

type Consumer struct {
	runner  Runner
	timeout time.Duration
	logger  *slog.Logger
}

func NewConsumer(runner Runner, timeout time.Duration, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{runner: runner, timeout: timeout, logger: logger}
}

// Handle 处理单条消息：只有输入错误时不会重试，其他错误重新入队
func (c *Consumer) Handle(ctx context.Context, msg amqp.Delivery) {
	job := domain.RecalcJob{}
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		c.logger.Error("重算任务反序列化失败", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}

	logger := c.logger.With(slog.String("jobID", job.JobID.String()))
	logger.Info("收到重算任务", slog.Int("timelines", len(job.TimelineIDs)), slog.Int("vacancies", len(job.VacancyIDs)))

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.runner.RecalculateCache(runCtx, job.TimelineIDs, job.VacancyIDs)
	switch {
	case err == nil:
		_ = msg.Ack(false)
		logger.Info("重算任务完成")
	case inputErrorsOnly(err):
		logger.Error("重算任务包含无效数据", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		// worker 正在退出，交给其他消费者
		logger.Warn("重算任务被中断", slog.String("error", err.Error()))
		_ = msg.Nack(false, true)
	default:
		logger.Error("重算任务失败", slog.String("error", err.Error()))
		_ = msg.Nack(false, !msg.Redelivered)
	}
}

// inputErrorsOnly 重算会把各个容器的错误合并在一起，只要其中有一个不是输入错误就需要重试
func inputErrorsOnly(err error) bool {
	switch e := err.(type) {
	case interface{ Unwrap() []error }:
		errs := e.Unwrap()
		if len(errs) == 0 {
			return false
		}
		for _, inner := range errs {
			if !inputErrorsOnly(inner) {
				return false
			}
		}
		return true
	case interface{ Unwrap() error }:
		inner := e.Unwrap()
		if inner == nil || !domain.IsInputError(inner) {
			return domain.IsInputError(err)
		}
		return inputErrorsOnly(inner)
	default:
		return domain.IsInputError(err)
	}
}

// Run 持续消费直到 ctx 结束或通道关闭
func (c *Consumer) Run(ctx context.Context, msgs <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("消息通道已关闭")
			}
			c.Handle(ctx, msg)
		}
	}
}
