package signal

import (
	"encoding/json"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/roomhub/internal/domain"
)

const identityKey = "identity"

// resolveIdentity seeds the connection identity from the userId/name/avatar
// query parameters. When the parameters are absent it falls back to the blob
// saved on the cookie session by a previous connect, so an identity survives
// reconnects without the client re-sending it.
func (ctl *Controller) resolveIdentity(c *gin.Context) *domain.Identity {
	sess := sessions.Default(c)
	if userID := c.Query("userId"); userID != "" {
		ident, err := domain.NewIdentity(userID, c.Query("name"), c.Query("avatar"))
		if err != nil {
			log.Warn().Err(err).Str("module", "adapters.signal").Msg("rejecting identity from query")
			return nil
		}
		saveIdentity(sess, ident)
		return ident
	}
	return loadIdentity(sess)
}

func saveIdentity(sess sessions.Session, ident *domain.Identity) {
	b, err := json.Marshal(ident)
	if err != nil {
		return
	}
	sess.Set(identityKey, string(b))
	if err := sess.Save(); err != nil {
		log.Warn().Err(err).Str("module", "adapters.signal").Msg("saving identity attachment")
	}
}

func loadIdentity(sess sessions.Session) *domain.Identity {
	raw, ok := sess.Get(identityKey).(string)
	if !ok {
		return nil
	}
	var ident domain.Identity
	if err := json.Unmarshal([]byte(raw), &ident); err != nil || ident.UserID == "" {
		return nil
	}
	return &ident
}
