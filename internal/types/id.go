package types

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// NewSceneID returns a collision-resistant scene id. uuid draws from
// crypto/rand; if the entropy source fails we fall back to wall-clock time
// plus a pseudo-random suffix, which is still unique enough for one session.
func NewSceneID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Sprintf("scene-%d-%06d", time.Now().UnixNano(), rand.Intn(1000000))
	}
	return id.String()
}
