package settings

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const userIDPrefix = "user_"

// Identity hands out the stable client identifier sent with every chat call.
type Identity struct {
	store Store
	now   func() time.Time
}

// NewIdentity returns an Identity backed by store.
func NewIdentity(store Store) *Identity {
	return &Identity{store: store, now: time.Now}
}

// GetOrCreateID returns the persisted identifier, generating and persisting
// one on first use. Storage failures never surface: an unreadable store yields
// a fresh identifier.
func (i *Identity) GetOrCreateID() string {
	id, ok, err := i.store.Get(KeyUserID)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read client identity")
	}
	if ok && id != "" {
		return id
	}

	id = newUserID(i.now())
	if err := i.store.Set(KeyUserID, id); err != nil {
		log.Warn().Err(err).Msg("failed to persist client identity")
	}
	log.Debug().Str("user_id", id).Msg("created client identity")
	return id
}

// newUserID builds user_<base36 millis><base36 random>.
func newUserID(t time.Time) string {
	u := uuid.New()
	var b strings.Builder
	b.WriteString(userIDPrefix)
	b.WriteString(strconv.FormatInt(t.UnixMilli(), 36))
	b.WriteString(strconv.FormatUint(binary.BigEndian.Uint64(u[8:]), 36))
	return b.String()
}
