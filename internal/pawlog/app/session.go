package app

import (
	"context"

	"github.com/aussiebroadwan/pawlog/pkg/notify"
	"github.com/aussiebroadwan/pawlog/pkg/tokenstore"
)

// sessionTokens keeps the notification channel on the current access
// token: a new pair restarts it and clearing the session stops it.
type sessionTokens struct {
	*tokenstore.Store

	channel *notify.Channel
	enabled bool
}

func (s *sessionTokens) SetPair(ctx context.Context, access, refresh string) error {
	if err := s.Store.SetPair(ctx, access, refresh); err != nil {
		return err
	}
	s.follow(access)
	return nil
}

func (s *sessionTokens) Clear(ctx context.Context) error {
	err := s.Store.Clear(ctx)
	s.channel.Stop()
	return err
}

func (s *sessionTokens) follow(access string) {
	if !s.enabled {
		return
	}
	s.channel.Start(access)
}
