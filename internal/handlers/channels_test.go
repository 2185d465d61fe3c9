package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

type profileViewerStub struct {
	profiles map[string]models.ChannelProfile
	viewerID string
}

func (s *profileViewerStub) ChannelProfile(_ context.Context, username, viewerID string) (models.ChannelProfile, error) {
	s.viewerID = viewerID
	profile, ok := s.profiles[username]
	if !ok {
		return models.ChannelProfile{}, fmt.Errorf("resolve channel: %w", repositories.ErrNotFound)
	}
	return profile, nil
}

type subscriptionStoreStub struct {
	edges map[string]string
	err   error
}

func (s *subscriptionStoreStub) Create(_ context.Context, sub models.Subscription) error {
	if s.err != nil {
		return s.err
	}
	if s.edges == nil {
		s.edges = make(map[string]string)
	}
	key := sub.ChannelID + "/" + sub.SubscriberID
	if _, ok := s.edges[key]; ok {
		return repositories.ErrConflict
	}
	s.edges[key] = sub.ID
	return nil
}

func (s *subscriptionStoreStub) Delete(_ context.Context, channelID, subscriberID string) error {
	if s.err != nil {
		return s.err
	}
	key := channelID + "/" + subscriberID
	if _, ok := s.edges[key]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.edges, key)
	return nil
}

func TestChannelHandlerProfileAnonymous(t *testing.T) {
	accounts := newMemAccounts()
	viewer := &profileViewerStub{profiles: map[string]models.ChannelProfile{
		"alice": {ID: "user-1", Username: "alice", SubscriberCount: 3},
	}}
	handler := ChannelHandler{Users: accounts, Sessions: newTestSessions(accounts), Profiles: viewer}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/channels/alice", nil)
	req.SetPathValue("username", "alice")
	rec := httptest.NewRecorder()

	handler.Profile(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if viewer.viewerID != "" {
		t.Fatalf("expected anonymous viewer id, got %q", viewer.viewerID)
	}
}

func TestChannelHandlerProfilePassesViewer(t *testing.T) {
	accounts := newMemAccounts()
	sessions := newTestSessions(accounts)
	user := seedUser(t, accounts, "user-9", "bob", "password123")
	tokens := loginAs(t, sessions, user)

	viewer := &profileViewerStub{profiles: map[string]models.ChannelProfile{
		"alice": {ID: "user-1", Username: "alice"},
	}}
	handler := ChannelHandler{Users: accounts, Sessions: sessions, Profiles: viewer}

	req := withBearer(httptest.NewRequest(http.MethodGet, "/api/v1/channels/alice", nil), tokens.AccessToken)
	req.SetPathValue("username", "alice")
	rec := httptest.NewRecorder()

	handler.Profile(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if viewer.viewerID != user.ID {
		t.Fatalf("expected viewer id %q to reach the assembler, got %q", user.ID, viewer.viewerID)
	}
}

func TestChannelHandlerProfileUnknownChannel(t *testing.T) {
	accounts := newMemAccounts()
	handler := ChannelHandler{Users: accounts, Sessions: newTestSessions(accounts), Profiles: &profileViewerStub{}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/channels/ghost", nil)
	req.SetPathValue("username", "ghost")
	rec := httptest.NewRecorder()

	handler.Profile(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestChannelHandlerSubscribe(t *testing.T) {
	accounts := newMemAccounts()
	sessions := newTestSessions(accounts)
	channel := seedUser(t, accounts, "user-1", "alice", "password123")
	fan := seedUser(t, accounts, "user-2", "bob", "password123")
	tokens := loginAs(t, sessions, fan)

	subs := &subscriptionStoreStub{}
	handler := ChannelHandler{Users: accounts, Sessions: sessions, Subscriptions: subs}

	req := withBearer(httptest.NewRequest(http.MethodPost, "/api/v1/channels/alice/subscribe", nil), tokens.AccessToken)
	req.SetPathValue("username", "alice")
	rec := httptest.NewRecorder()

	handler.Subscribe(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	if _, ok := subs.edges[channel.ID+"/"+fan.ID]; !ok {
		t.Fatal("expected subscription edge to be stored")
	}

	// Subscribing twice conflicts.
	rec = httptest.NewRecorder()
	req = withBearer(httptest.NewRequest(http.MethodPost, "/api/v1/channels/alice/subscribe", nil), tokens.AccessToken)
	req.SetPathValue("username", "alice")
	handler.Subscribe(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status %d on duplicate subscribe got %d", http.StatusConflict, rec.Code)
	}
}

func TestChannelHandlerSubscribeRequiresAuth(t *testing.T) {
	accounts := newMemAccounts()
	handler := ChannelHandler{Users: accounts, Sessions: newTestSessions(accounts), Subscriptions: &subscriptionStoreStub{}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/channels/alice/subscribe", nil)
	req.SetPathValue("username", "alice")
	rec := httptest.NewRecorder()

	handler.Subscribe(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestChannelHandlerSubscribeOwnChannel(t *testing.T) {
	accounts := newMemAccounts()
	sessions := newTestSessions(accounts)
	user := seedUser(t, accounts, "user-1", "alice", "password123")
	tokens := loginAs(t, sessions, user)

	handler := ChannelHandler{Users: accounts, Sessions: sessions, Subscriptions: &subscriptionStoreStub{}}

	req := withBearer(httptest.NewRequest(http.MethodPost, "/api/v1/channels/alice/subscribe", nil), tokens.AccessToken)
	req.SetPathValue("username", "alice")
	rec := httptest.NewRecorder()

	handler.Subscribe(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d subscribing to own channel got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestChannelHandlerUnsubscribe(t *testing.T) {
	accounts := newMemAccounts()
	sessions := newTestSessions(accounts)
	channel := seedUser(t, accounts, "user-1", "alice", "password123")
	fan := seedUser(t, accounts, "user-2", "bob", "password123")
	tokens := loginAs(t, sessions, fan)

	subs := &subscriptionStoreStub{edges: map[string]string{channel.ID + "/" + fan.ID: "sub-1"}}
	handler := ChannelHandler{Users: accounts, Sessions: sessions, Subscriptions: subs}

	req := withBearer(httptest.NewRequest(http.MethodDelete, "/api/v1/channels/alice/subscribe", nil), tokens.AccessToken)
	req.SetPathValue("username", "alice")
	rec := httptest.NewRecorder()

	handler.Unsubscribe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	// The edge is gone now.
	rec = httptest.NewRecorder()
	req = withBearer(httptest.NewRequest(http.MethodDelete, "/api/v1/channels/alice/subscribe", nil), tokens.AccessToken)
	req.SetPathValue("username", "alice")
	handler.Unsubscribe(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d unsubscribing twice got %d", http.StatusNotFound, rec.Code)
	}
}
