package api

import (
	"sync"

	"github.com/Envislon1/create-joy/logging"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

type Config struct {
	StorageConfig
	ServerConfig
	PaystackConfig
	ContestConfig
	BoostConfig
}

type StorageConfig struct {
	TableNameContestants     string
	TableNameTransactions    string
	TableNameContestSettings string
}

type ServerConfig struct {
	Port int
}

type PaystackConfig struct {
	BaseURL   string
	SecretKey string
}

type ContestConfig struct {
	Currency string
}

// BoostConfig maps contestant display names to bonus votes above the final
// leader. Name-keyed to match the historical boost configuration.
type BoostConfig struct {
	Bonuses map[string]int
}

var settingsOnce sync.Once

func ReadConfig() *Config {

	var conf = &Config{
		StorageConfig: StorageConfig{
			TableNameContestants:     viper.GetString("storage.TableNameContestants"),
			TableNameTransactions:    viper.GetString("storage.TableNameTransactions"),
			TableNameContestSettings: viper.GetString("storage.TableNameContestSettings"),
		},
		ServerConfig: ServerConfig{
			Port: getIntOrDefault("server.port", 8080),
		},
		PaystackConfig: PaystackConfig{
			BaseURL: getStringOrDefault("paystack.baseUrl", "https://api.paystack.co"),
			// secret only ever comes from the environment
			SecretKey: viper.GetString("PAYSTACK_SECRET_KEY"),
		},
		ContestConfig: ContestConfig{
			Currency: getStringOrDefault("contest.currency", "NGN"),
		},
		BoostConfig: BoostConfig{
			Bonuses: readBoostBonuses(),
		},
	}

	settingsOnce.Do(func() {
		logging.Log.Print("Reading settings!")
	})

	return conf
}

func readBoostBonuses() map[string]int {
	raw := viper.GetStringMap("boost.bonuses")
	bonuses := make(map[string]int, len(raw))
	for name, value := range raw {
		bonuses[name] = cast.ToInt(value)
	}
	return bonuses
}

func getStringOrDefault(name string, def string) string {
	if viper.IsSet(name) {
		v := viper.GetString(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}

func getIntOrDefault(name string, def int) int {
	if viper.IsSet(name) {
		v := viper.GetInt(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}
