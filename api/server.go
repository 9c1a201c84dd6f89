package api

import (
	"github.com/vesaki/vesaki-server/feed"
	"github.com/vesaki/vesaki-server/serp"
	"github.com/vesaki/vesaki-server/session"
	"github.com/vesaki/vesaki-server/store"
	"github.com/vesaki/vesaki-server/swipes"
)

// Server bundles the handlers' dependencies. Tests construct one over a
// MemoryStore with fake sources.
type Server struct {
	Store    store.Store
	Search   *serp.Adapter
	Feed     *feed.Aggregator
	Swipes   *swipes.Gateway
	Sessions *session.Manager
}

func NewServer(st store.Store, search *serp.Adapter, fd *feed.Aggregator, gw *swipes.Gateway, sessions *session.Manager) *Server {
	return &Server{
		Store:    st,
		Search:   search,
		Feed:     fd,
		Swipes:   gw,
		Sessions: sessions,
	}
}
