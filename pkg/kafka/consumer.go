package kafka

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strconv"
	"sync"
	"time"

	applogger "RentWise/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageHandler handles the payloads of one topic. Errors wrapped with
// Permanent skip the remaining retries.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

type ConsumerConfig struct {
	Brokers     []string
	GroupID     string
	WorkerCount int
	BufferSize  int // per worker queue
	RetryMax    int // retries after the first attempt
	BackoffMin  time.Duration
	BackoffMax  time.Duration
	DLQTopic    string
	MinBytes    int
	MaxBytes    int
	Logger      *applogger.Logger
}

type ConsumerOption func(*ConsumerConfig)

func WithConsumerBrokers(brokers []string) ConsumerOption {
	return func(c *ConsumerConfig) { c.Brokers = brokers }
}

func WithConsumerGroupID(groupID string) ConsumerOption {
	return func(c *ConsumerConfig) {
		if groupID != "" {
			c.GroupID = groupID
		}
	}
}

func WithConsumerWorkers(n int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if n > 0 {
			c.WorkerCount = n
		}
	}
}

func WithConsumerBufferSize(n int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if n > 0 {
			c.BufferSize = n
		}
	}
}

// WithConsumerRetry sets how often a failed message is retried and the
// exponential backoff bounds between attempts.
func WithConsumerRetry(retries int, backoffMin, backoffMax time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.RetryMax = retries
		c.BackoffMin = backoffMin
		c.BackoffMax = backoffMax
	}
}

// WithConsumerDLQ sends messages that exhausted their retries to topic.
// Without a DLQ a failed message is not committed itself and is only
// skipped once a later offset of its partition commits.
func WithConsumerDLQ(topic string) ConsumerOption {
	return func(c *ConsumerConfig) { c.DLQTopic = topic }
}

func WithConsumerFetch(minBytes, maxBytes int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if minBytes > 0 {
			c.MinBytes = minBytes
		}
		if maxBytes > 0 {
			c.MaxBytes = maxBytes
		}
	}
}

func WithConsumerLogger(l *applogger.Logger) ConsumerOption {
	return func(c *ConsumerConfig) { c.Logger = l }
}

// messageReader is the part of *kafka.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads the registered topics in one consumer group and hands
// messages to a fixed set of workers. All messages of a partition go to
// the same worker, so they are handled and committed in offset order.
type Consumer struct {
	cfg       ConsumerConfig
	log       *applogger.Logger
	handlers  map[string]MessageHandler
	hook      ConsumerHook
	dlq       messageWriter
	newReader func(topic string) messageReader

	readers map[string]messageReader
	// held maps a partition to the offset of a message that failed and could
	// not be dead-lettered. Later offsets of that partition are handled but not committed,
	// so the group resumes at the failed message after a restart.
	held    sync.Map
	queues  []chan kafka.Message
	cancel  context.CancelFunc
	fetchWG sync.WaitGroup
	workWG  sync.WaitGroup
	stop    sync.Once
}

func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := ConsumerConfig{
		GroupID:     "rentwise",
		WorkerCount: 1,
		BufferSize:  16,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    1,
		MaxBytes:    10 << 20,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = applogger.Nop()
	}

	c := &Consumer{
		cfg:      cfg,
		log:      cfg.Logger,
		handlers: make(map[string]MessageHandler),
		hook:     HookFuncs{},
		readers:  make(map[string]messageReader),
	}
	c.newReader = func(topic string) messageReader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			GroupID:  cfg.GroupID,
			Topic:    topic,
			MinBytes: cfg.MinBytes,
			MaxBytes: cfg.MaxBytes,
		})
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.DLQTopic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		}
	}
	return c, nil
}

// RegisterHandler must be called before Start. A second handler for the
// same topic is ignored.
func (c *Consumer) RegisterHandler(h MessageHandler) {
	if _, dup := c.handlers[h.Topic()]; dup {
		c.log.Warn("kafka consumer: duplicate handler ignored", applogger.String("topic", h.Topic()))
		return
	}
	c.handlers[h.Topic()] = h
}

func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// Start opens one reader per topic and starts the workers. It does not block.
func (c *Consumer) Start() error {
	if len(c.handlers) == 0 {
		return fmt.Errorf("no handlers registered")
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.queues = make([]chan kafka.Message, c.cfg.WorkerCount)
	for i := range c.queues {
		c.queues[i] = make(chan kafka.Message, c.cfg.BufferSize)
		c.workWG.Add(1)
		go c.work(ctx, c.queues[i])
	}
	for topic := range c.handlers {
		r := c.newReader(topic)
		c.readers[topic] = r
		c.fetchWG.Add(1)
		go c.fetch(ctx, topic, r)
	}

	c.log.Info("kafka consumer: started",
		applogger.String("group_id", c.cfg.GroupID),
		applogger.Int("topics", len(c.handlers)),
		applogger.Int("workers", c.cfg.WorkerCount))
	return nil
}

// Stop cancels fetching, lets each worker finish its current message and
// closes the readers. Queued but unhandled messages stay uncommitted and
// are redelivered to the group, as are held partitions from the failed
// offset on.
func (c *Consumer) Stop(ctx context.Context) error {
	var err error
	c.stop.Do(func() {
		if c.cancel == nil {
			return
		}
		c.cancel()

		done := make(chan struct{})
		go func() {
			c.fetchWG.Wait()
			for _, q := range c.queues {
				close(q)
			}
			c.workWG.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = fmt.Errorf("kafka consumer stop: %w", ctx.Err())
		}

		for topic, r := range c.readers {
			if cerr := r.Close(); cerr != nil {
				c.log.Warn("kafka consumer: close reader", applogger.String("topic", topic), applogger.Error(cerr))
			}
		}
		if c.dlq != nil {
			if cerr := c.dlq.Close(); cerr != nil {
				c.log.Warn("kafka consumer: close dlq writer", applogger.Error(cerr))
			}
		}
		c.log.Info("kafka consumer: stopped")
	})
	return err
}

func (c *Consumer) fetch(ctx context.Context, topic string, r messageReader) {
	defer c.fetchWG.Done()
	for {
		km, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn("kafka consumer: fetch", applogger.String("topic", topic), applogger.Error(err))
			if !sleep(ctx, c.cfg.BackoffMin) {
				return
			}
			continue
		}
		q := c.queues[c.workerFor(km)]
		select {
		case q <- km:
			consumerStats().queued.WithLabelValues(topic).Set(float64(len(q)))
		case <-ctx.Done():
			return
		}
	}
}

func (c *Consumer) workerFor(km kafka.Message) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(km.Topic))
	_, _ = h.Write([]byte(strconv.Itoa(km.Partition)))
	return int(h.Sum32() % uint32(len(c.queues)))
}

func (c *Consumer) work(ctx context.Context, q <-chan kafka.Message) {
	defer c.workWG.Done()
	for km := range q {
		if ctx.Err() != nil {
			continue
		}
		c.process(ctx, km)
	}
}

// process runs the handler with retries, dead-letters a final failure and
// commits unless the message must be redelivered.
func (c *Consumer) process(ctx context.Context, km kafka.Message) {
	start := time.Now()
	h := c.handlers[km.Topic]
	if h == nil {
		return
	}

	// handlers run to completion even while stopping
	hctx := context.WithoutCancel(ctx)
	var err error
	attempt := 0
	for {
		attempt++
		err = c.attempt(hctx, h, km)
		if err == nil || IsPermanent(err) || attempt > c.cfg.RetryMax {
			break
		}
		if !sleep(ctx, backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempt)) {
			// stopping; the message will be redelivered
			return
		}
	}

	stats := consumerStats()
	stats.latency.WithLabelValues(km.Topic).Observe(time.Since(start).Seconds())
	result := "ok"
	if err != nil {
		result = c.deadLetter(km, err, attempt)
	}
	stats.messages.WithLabelValues(km.Topic, result).Inc()
	if result == "failed" {
		c.held.LoadOrStore(partitionOf(km), km.Offset)
		return
	}
	if off, ok := c.held.Load(partitionOf(km)); ok {
		c.log.Debug("kafka consumer: commit held behind failed message",
			applogger.String("topic", km.Topic),
			applogger.Int("partition", km.Partition),
			applogger.Int64("failed_offset", off.(int64)),
			applogger.Int64("offset", km.Offset))
		return
	}
	c.commit(km)
}

type partitionKey struct {
	topic     string
	partition int
}

func partitionOf(km kafka.Message) partitionKey {
	return partitionKey{topic: km.Topic, partition: km.Partition}
}

func (c *Consumer) attempt(ctx context.Context, h MessageHandler, km kafka.Message) (err error) {
	hctx, err := c.hook.Before(ctx, km)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = Permanent(fmt.Errorf("handler panic: %v", r))
		}
		c.hook.After(hctx, km, err)
	}()
	return h.Handle(hctx, km.Value)
}

// deadLetter reports "dlq" once the message is parked, "failed" when it
// must stay uncommitted.
func (c *Consumer) deadLetter(km kafka.Message, cause error, attempts int) string {
	c.log.Warn("kafka consumer: message failed",
		applogger.String("topic", km.Topic),
		applogger.Int("partition", km.Partition),
		applogger.Int64("offset", km.Offset),
		applogger.Int("attempts", attempts),
		applogger.Bool("permanent", IsPermanent(cause)),
		applogger.Error(cause))
	if c.dlq == nil {
		return "failed"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	headers := append([]kafka.Header{
		{Key: "source_topic", Value: []byte(km.Topic)},
		{Key: "source_partition", Value: []byte(strconv.Itoa(km.Partition))},
		{Key: "source_offset", Value: []byte(strconv.FormatInt(km.Offset, 10))},
		{Key: "error", Value: []byte(cause.Error())},
	}, km.Headers...)
	err := c.dlq.WriteMessages(ctx, kafka.Message{Key: km.Key, Value: km.Value, Headers: headers})
	if err != nil {
		c.log.Error("kafka consumer: write dlq", applogger.String("dlq_topic", c.cfg.DLQTopic), applogger.Error(err))
		return "failed"
	}
	return "dlq"
}

func (c *Consumer) commit(km kafka.Message) {
	r := c.readers[km.Topic]
	if r == nil {
		return
	}
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = r.CommitMessages(ctx, km)
		cancel()
		if err == nil {
			return
		}
		time.Sleep(backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	c.log.Error("kafka consumer: commit",
		applogger.String("topic", km.Topic),
		applogger.Int64("offset", km.Offset),
		applogger.Error(err))
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// backoffWithJitter doubles from lo per attempt, caps at hi and subtracts
// up to half as jitter.
func backoffWithJitter(lo, hi time.Duration, attempt int) time.Duration {
	if lo <= 0 {
		lo = 50 * time.Millisecond
	}
	if hi < lo {
		hi = lo
	}
	d := hi
	if attempt < 32 {
		if exp := lo << uint(attempt-1); exp > 0 && exp < hi {
			d = exp
		}
	}
	if half := int64(d) / 2; half > 0 {
		d -= time.Duration(rand.Int63n(half))
	}
	return d
}

type consumerMetrics struct {
	queued   *prometheus.GaugeVec
	latency  *prometheus.HistogramVec
	messages *prometheus.CounterVec
}

var (
	consumerMetricsOnce sync.Once
	consumerMetricsInst *consumerMetrics
)

func consumerStats() *consumerMetrics {
	consumerMetricsOnce.Do(func() {
		consumerMetricsInst = &consumerMetrics{
			queued: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "rentwise_kafka_consumer_queue_depth",
				Help: "Messages waiting for a worker",
			}, []string{"topic"}),
			latency: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name: "rentwise_kafka_consumer_handle_seconds",
				Help: "Handling time per message including retries",
			}, []string{"topic"}),
			messages: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "rentwise_kafka_consumer_messages_total",
				Help: "Consumed messages by outcome: ok, dlq or failed",
			}, []string{"topic", "result"}),
		}
	})
	return consumerMetricsInst
}

