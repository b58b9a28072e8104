package pasetotoken

import (
	"strings"

	paseto "aidanwoods.dev/go-paseto"

	"github.com/fieldz/fieldz_backend/config"
)

type Mode string

const (
	ModeLocal  Mode = "local"  // v4.local, one shared key encrypts and decrypts
	ModePublic Mode = "public" // v4.public, signed by the API and verifiable elsewhere
)

type Keys struct {
	Mode Mode

	Symmetric *paseto.V4SymmetricKey

	Secret *paseto.V4AsymmetricSecretKey
	Public *paseto.V4AsymmetricPublicKey
}

// CanIssue reports whether k holds the key needed to mint tokens. A public
// key alone only verifies.
func (k Keys) CanIssue() bool {
	switch k.Mode {
	case ModeLocal:
		return k.Symmetric != nil
	case ModePublic:
		return k.Secret != nil
	}
	return false
}

// KeysFromConfig decodes the hex keys of the authentication.paseto section.
func KeysFromConfig(c config.PasetoConfig) (Keys, error) {
	switch Mode(c.Mode) {
	case ModeLocal:
		hex := strings.TrimSpace(c.LocalKeyHex)
		if hex == "" {
			return Keys{}, ErrConfig{Key: "local_key_hex", Msg: "required in local mode"}
		}
		k, err := paseto.V4SymmetricKeyFromHex(hex)
		if err != nil {
			return Keys{}, ErrConfig{Key: "local_key_hex", Msg: err.Error()}
		}
		return Keys{Mode: ModeLocal, Symmetric: &k}, nil

	case ModePublic:
		out := Keys{Mode: ModePublic}
		if hex := strings.TrimSpace(c.SecretKeyHex); hex != "" {
			sk, err := paseto.NewV4AsymmetricSecretKeyFromHex(hex)
			if err != nil {
				return Keys{}, ErrConfig{Key: "secret_key_hex", Msg: err.Error()}
			}
			pk := sk.Public()
			out.Secret, out.Public = &sk, &pk
		}
		if hex := strings.TrimSpace(c.PublicKeyHex); hex != "" {
			pk, err := paseto.NewV4AsymmetricPublicKeyFromHex(hex)
			if err != nil {
				return Keys{}, ErrConfig{Key: "public_key_hex", Msg: err.Error()}
			}
			if out.Public != nil && out.Public.ExportHex() != pk.ExportHex() {
				return Keys{}, ErrConfig{Key: "public_key_hex", Msg: "does not match secret_key_hex"}
			}
			out.Public = &pk
		}
		if out.Public == nil {
			return Keys{}, ErrConfig{Key: "secret_key_hex", Msg: "secret_key_hex or public_key_hex is required in public mode"}
		}
		return out, nil

	default:
		return Keys{}, ErrConfig{Key: "mode", Msg: "must be local or public, got " + c.Mode}
	}
}

func NewLocalKeys() Keys {
	k := paseto.NewV4SymmetricKey()
	return Keys{Mode: ModeLocal, Symmetric: &k}
}

func NewPublicKeys() Keys {
	sk := paseto.NewV4AsymmetricSecretKey()
	pk := sk.Public()
	return Keys{Mode: ModePublic, Secret: &sk, Public: &pk}
}
