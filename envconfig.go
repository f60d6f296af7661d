package textstream

import (
	"github.com/gobeaver/beaver-kit/config"
)

// envDefaults seeds the defaults of the command line options. An explicit
// option always takes precedence.
type envDefaults struct {
	From       string `env:"TEXTSTREAM_FROM,default:utf-8"`
	To         string `env:"TEXTSTREAM_TO,default:utf-8"`
	API        string `env:"TEXTSTREAM_API,default:stream"`
	Chunker    string `env:"TEXTSTREAM_CHUNKER,default:fixed-size_65536"`
	Compressor string `env:"TEXTSTREAM_COMPRESSOR,default:none"`
	Hash       string `env:"TEXTSTREAM_HASH,default:sha2-256"`
}

func loadEnvDefaults() (envDefaults, error) {
	env := &envDefaults{}
	if err := config.Load(env); err != nil {
		return envDefaults{}, err
	}
	return *env, nil
}
