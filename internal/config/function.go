package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Function holds the values the escalator needs on every invocation.
type Function struct {
	Endpoint            string
	APIKey              string
	ProjectID           string
	OwnerTeamID         string
	DatabaseID          string
	BookingCollectionID string
}

// functionVars maps viper keys to the environment variables the platform sets.
var functionVars = []struct {
	key string
	env string
}{
	{"endpoint", "APPWRITE_FUNCTION_ENDPOINT"},
	{"api_key", "APPWRITE_FUNCTION_API_KEY"},
	{"project_id", "APPWRITE_FUNCTION_PROJECT_ID"},
	{"owner_team_id", "OWNER_TEAM_ID"},
	{"database_id", "DATABASE_ID"},
	{"bookings_collection_id", "BOOKINGS_COLLECTION_ID"},
}

// EnvNames returns the required environment variable names in a stable order.
func EnvNames() []string {
	names := make([]string, len(functionVars))
	for i, fv := range functionVars {
		names[i] = fv.env
	}
	return names
}

// MissingError lists required variables that were absent or blank.
type MissingError struct {
	Vars []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("environment configuration incomplete: missing %s", strings.Join(e.Vars, ", "))
}

// FunctionFromEnv reads the function variables from the current process
// environment. A fresh viper instance is used per call so nothing is cached
// between invocations.
func FunctionFromEnv() (*Function, error) {
	v := viper.New()
	for _, fv := range functionVars {
		_ = v.BindEnv(fv.key, fv.env)
	}
	return LoadFunction(v)
}

// LoadFunction builds a Function from v. Every value must be non-blank.
func LoadFunction(v *viper.Viper) (*Function, error) {
	values := make(map[string]string, len(functionVars))
	var missing []string
	for _, fv := range functionVars {
		val := strings.TrimSpace(v.GetString(fv.key))
		if val == "" {
			missing = append(missing, fv.env)
			continue
		}
		values[fv.key] = val
	}
	if len(missing) > 0 {
		return nil, &MissingError{Vars: missing}
	}

	return &Function{
		Endpoint:            values["endpoint"],
		APIKey:              values["api_key"],
		ProjectID:           values["project_id"],
		OwnerTeamID:         values["owner_team_id"],
		DatabaseID:          values["database_id"],
		BookingCollectionID: values["bookings_collection_id"],
	}, nil
}
