package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"feedbox-backend/internal/sync/usecase"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// RemoteChangeNotification is the payload the reader service publishes when
// the subscribed account has new activity. SequenceID is monotonically
// increasing per account and drives deduplication.
type RemoteChangeNotification struct {
	AccountEmail string `json:"accountEmail"`
	SequenceID   uint64 `json:"sequenceId"`
}

// Service subscribes to the reader service's change topic and converts each
// notification into one sync trigger. Triggers go through the scheduler, so a
// burst of messages still yields at most one active run.
type Service struct {
	pubsubClient *pubsub.Client
	syncUsecase  usecase.SyncUsecase
	projectID    string
	topicName    string
	subName      string

	// Receive runs callbacks on multiple goroutines, so the dedup map
	// needs its own lock
	mu             sync.Mutex
	lastSequenceID map[string]uint64
}

func NewService(projectID, topicName string, syncUsecase usecase.SyncUsecase, credentialsFile string) (*Service, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %v", err)
	}

	return &Service{
		pubsubClient:   client,
		syncUsecase:    syncUsecase,
		projectID:      projectID,
		topicName:      topicName,
		subName:        topicName + "-sub", // Convention: topic-sub
		lastSequenceID: make(map[string]uint64),
	}, nil
}

func (s *Service) Start(ctx context.Context) {
	log.Printf("[PubSub] Starting notification service with topic: %s, subscription: %s", s.topicName, s.subName)

	// Ensure subscription exists
	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		log.Printf("[PubSub] Error checking subscription existence: %v", err)
		return
	}

	if !exists {
		topic := s.pubsubClient.Topic(s.topicName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			log.Printf("[PubSub] Error checking topic existence: %v", err)
			return
		}
		if !topicExists {
			log.Printf("[PubSub] Topic %s does not exist, cannot create subscription", s.topicName)
			return
		}

		sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 10 * time.Second,
		})
		if err != nil {
			log.Printf("[PubSub] Failed to create subscription: %v", err)
			return
		}
		log.Printf("[PubSub] Created subscription: %s", s.subName)
	}

	log.Printf("[PubSub] Listening for messages on subscription: %s", s.subName)
	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.handleMessage(msg)
		msg.Ack()
	})
	if err != nil {
		log.Printf("[PubSub] Error receiving messages: %v", err)
	}
}

func (s *Service) handleMessage(msg *pubsub.Message) {
	var notification RemoteChangeNotification
	if err := json.Unmarshal(msg.Data, &notification); err != nil {
		log.Printf("[PubSub] Failed to unmarshal notification: %v", err)
		return
	}

	log.Printf("[PubSub] Received notification for: %s (sequenceId: %d)", notification.AccountEmail, notification.SequenceID)

	// Skip if we already saw this sequence id for this account
	s.mu.Lock()
	lastSeq, seen := s.lastSequenceID[notification.AccountEmail]
	if seen && notification.SequenceID <= lastSeq {
		s.mu.Unlock()
		log.Printf("[PubSub] Skipping duplicate notification for %s (sequenceId %d <= last %d)", notification.AccountEmail, notification.SequenceID, lastSeq)
		return
	}
	s.lastSequenceID[notification.AccountEmail] = notification.SequenceID
	s.mu.Unlock()

	runID, started, err := s.syncUsecase.TriggerSync()
	if err != nil {
		log.Printf("[PubSub] Failed to trigger sync: %v", err)
		return
	}
	if started {
		log.Printf("[PubSub] Triggered sync run %s", runID)
	} else {
		log.Printf("[PubSub] Sync already active, coalesced onto run %s", runID)
	}
}
