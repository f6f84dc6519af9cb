package view

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/viewsync/internal/core/fields"
	"github.com/zeusync/viewsync/internal/core/models"
)

// expectedActive derives the active set from first principles: the least
// fixpoint of "every target exists and is active, and authority is held
// when required".
func expectedActive(v *View) map[models.Key]bool {
	active := make(map[models.Key]bool)
	for changed := true; changed; {
		changed = false
		for key, c := range v.components {
			if active[key] {
				continue
			}
			if c.typ.RequiresAuthority && !v.IsAuthoritative(key.Entity, key.Type) {
				continue
			}
			ok := true
			for i, opt := range c.typ.Options {
				if opt.Kind == fields.KindEntityRef && !opt.Optional && !c.IsSet(i) {
					ok = false
				}
				for _, id := range fields.References(c.values[i]) {
					if !active[models.Key{Entity: id, Type: opt.Target}] {
						ok = false
					}
				}
			}
			if ok {
				active[key] = true
				changed = true
			}
		}
	}
	return active
}

func TestActivationMatchesFixpoint(t *testing.T) {
	types := []string{"drawable", "material", "model", "controller", "group"}
	entities := []models.EntityID{1, 2, 3, 4}

	for seed := uint64(0); seed < 20; seed++ {
		v, rec := newTestView(t)
		rng := rand.New(rand.NewPCG(seed, seed+1))
		randomEntity := func() models.EntityID { return entities[rng.IntN(len(entities))] }

		for step := 0; step < 300; step++ {
			id := randomEntity()
			typeID := types[rng.IntN(len(types))]

			switch rng.IntN(8) {
			case 0:
				_ = v.AddEntity(id)
			case 1:
				if rng.IntN(4) == 0 {
					_ = v.RemoveEntity(id)
				}
			case 2:
				_, _ = v.AddComponent(id, typeID)
			case 3:
				_ = v.RemoveComponent(id, typeID)
			case 4, 5:
				c, ok := v.Component(id, typeID)
				if !ok {
					continue
				}
				switch typeID {
				case "model":
					option := rng.IntN(2)
					var value fields.Value = fields.EntityRef(randomEntity())
					if option == modelMaterial && rng.IntN(3) == 0 {
						value = fields.Cleared{}
					}
					_ = v.SetCanonicalValue(c, option, value)
				case "group":
					list := fields.EntityRefList{}
					for range rng.IntN(3) {
						list = append(list, randomEntity())
					}
					_ = v.SetCanonicalValue(c, 0, list)
				case "controller":
					_ = v.SetCanonicalValue(c, 0, fields.Float(rng.IntN(3)))
				}
			case 6:
				v.Delegate(id, "controller")
			case 7:
				v.Undelegate(id, "controller")
			}

			want := expectedActive(v)
			for key, c := range v.components {
				require.Equal(t, want[key], c.IsActive(), "seed %d step %d component %s", seed, step, key)
				if !c.IsActive() {
					require.Nil(t, c.Handle())
				}
			}
		}

		// Every activation was matched by a deactivation or is still active
		for key, n := range rec.activations {
			c, ok := v.components[key]
			stillActive := 0
			if ok && c.IsActive() {
				stillActive = 1
			}
			require.Equal(t, n, rec.deactivations[key]+stillActive, "seed %d component %s", seed, key)
		}
	}
}
