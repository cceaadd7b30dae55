package realtime

import (
	"sync"
)

// Router coordinates websocket sessions and logical topics (event channels).
// It keeps one active Connection per user while allowing efficient fan-out
// to every session subscribed to a topic.
type Router struct {
	mu            sync.RWMutex
	sessions      map[string]*Connection            // sessionID -> connection
	userSessions  map[string]string                 // userID -> sessionID
	topics        map[string]map[string]*Connection // topic -> sessionID -> connection
	sessionTopics map[string]map[string]struct{}    // sessionID -> set of topics
}

// NewRouter constructs an initialized Router.
func NewRouter() *Router {
	return &Router{
		sessions:      make(map[string]*Connection),
		userSessions:  make(map[string]string),
		topics:        make(map[string]map[string]*Connection),
		sessionTopics: make(map[string]map[string]struct{}),
	}
}

// Attach registers a connection for the given user. If a previous session exists,
// it is removed and closed after the swap to enforce one active socket per user.
func (r *Router) Attach(conn *Connection) {
	var previous *Connection

	r.mu.Lock()
	if existingID, ok := r.userSessions[conn.UserID]; ok {
		if existing := r.sessions[existingID]; existing != nil {
			previous = existing
			r.detachLocked(existingID)
		}
	}

	r.sessions[conn.ID] = conn
	r.userSessions[conn.UserID] = conn.ID
	r.sessionTopics[conn.ID] = make(map[string]struct{})
	r.mu.Unlock()

	conn.Start()

	if previous != nil {
		previous.Close(4001, "session replaced")
	}
}

// Detach removes a connection if it is still tracked.
func (r *Router) Detach(conn *Connection) {
	r.mu.Lock()
	r.detachLocked(conn.ID)
	r.mu.Unlock()
}

// Subscribe adds the connection to the topic.
func (r *Router) Subscribe(topic string, conn *Connection) {
	r.mu.Lock()
	if _, ok := r.sessions[conn.ID]; !ok {
		r.mu.Unlock()
		return
	}

	subs := r.topics[topic]
	if subs == nil {
		subs = make(map[string]*Connection)
		r.topics[topic] = subs
	}
	subs[conn.ID] = conn

	memberships := r.sessionTopics[conn.ID]
	if memberships == nil {
		memberships = make(map[string]struct{})
		r.sessionTopics[conn.ID] = memberships
	}
	memberships[topic] = struct{}{}
	r.mu.Unlock()
}

// Unsubscribe removes the connection from the topic.
func (r *Router) Unsubscribe(topic string, conn *Connection) {
	r.mu.Lock()
	r.unsubscribeLocked(topic, conn.ID)
	r.mu.Unlock()
}

// Broadcast writes payload to all subscribers of the topic.
// excludeUserID, when non-empty, prevents delivering to that user.
func (r *Router) Broadcast(topic string, payload []byte, excludeUserID string) int {
	r.mu.RLock()
	subs := r.topics[topic]
	if len(subs) == 0 {
		r.mu.RUnlock()
		return 0
	}

	delivered := 0
	for _, conn := range subs {
		if excludeUserID != "" && conn.UserID == excludeUserID {
			continue
		}
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	r.mu.RUnlock()
	return delivered
}

// NotifyUser delivers payload to the current connection of the given user.
func (r *Router) NotifyUser(userID string, payload []byte) bool {
	r.mu.RLock()
	sessionID, ok := r.userSessions[userID]
	if !ok {
		r.mu.RUnlock()
		return false
	}
	conn := r.sessions[sessionID]
	r.mu.RUnlock()
	if conn == nil {
		return false
	}
	return conn.Send(payload) == nil
}

// Close terminates all tracked connections and clears router state.
func (r *Router) Close() {
	r.mu.Lock()
	sessions := make([]*Connection, 0, len(r.sessions))
	for _, conn := range r.sessions {
		sessions = append(sessions, conn)
	}
	r.sessions = make(map[string]*Connection)
	r.userSessions = make(map[string]string)
	r.topics = make(map[string]map[string]*Connection)
	r.sessionTopics = make(map[string]map[string]struct{})
	r.mu.Unlock()

	for _, conn := range sessions {
		conn.Close(1001, "router shutdown")
	}
}

func (r *Router) detachLocked(sessionID string) {
	conn, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	delete(r.sessions, sessionID)

	if current, ok := r.userSessions[conn.UserID]; ok && current == sessionID {
		delete(r.userSessions, conn.UserID)
	}

	for topic := range r.sessionTopics[sessionID] {
		r.unsubscribeLocked(topic, sessionID)
	}
	delete(r.sessionTopics, sessionID)
}

func (r *Router) unsubscribeLocked(topic string, sessionID string) {
	if sessionID == "" {
		return
	}
	subs := r.topics[topic]
	if subs == nil {
		return
	}
	delete(subs, sessionID)
	if len(subs) == 0 {
		delete(r.topics, topic)
	}
	if memberships, ok := r.sessionTopics[sessionID]; ok {
		delete(memberships, topic)
		if len(memberships) == 0 {
			delete(r.sessionTopics, sessionID)
		}
	}
}
