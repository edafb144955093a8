package events

import (
	"testing"
	"time"
)

func receive(t *testing.T, ch <-chan Topic) Topic {
	t.Helper()
	select {
	case topic := <-ch:
		return topic
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for notification")
		return ""
	}
}

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus()

	all, cancelAll := bus.Subscribe()
	defer cancelAll()
	songsOnly, cancelSongs := bus.Subscribe(TopicSongs)
	defer cancelSongs()

	bus.Publish(TopicPlaylists)

	if got := receive(t, all); got != TopicPlaylists {
		t.Errorf("Expected %s, got %s", TopicPlaylists, got)
	}
	select {
	case got := <-songsOnly:
		t.Errorf("Expected filtered subscriber to stay quiet, got %s", got)
	default:
	}

	bus.Publish(TopicSongs, TopicQueue)
	if got := receive(t, songsOnly); got != TopicSongs {
		t.Errorf("Expected %s, got %s", TopicSongs, got)
	}
}

func TestBus_CancelClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(TopicQueue)
	cancel()

	if _, open := <-ch; open {
		t.Error("Expected channel to be closed after cancel")
	}

	// Publishing after cancel must not panic
	bus.Publish(TopicQueue)

	// Cancelling twice is safe
	cancel()
}

func TestBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus()
	_, cancel := bus.Subscribe(TopicSongs)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(TopicSongs)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}
