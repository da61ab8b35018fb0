package store

import (
	"fmt"
	"os"

	"github.com/supabase-community/supabase-go"

	"clementus360/behavior-intel/types"
)

// Supabase implements Store over a hosted Supabase project.
type Supabase struct {
	client *supabase.Client
}

var _ Store = (*Supabase)(nil)

// NewSupabase builds a store handle from SUPABASE_URL / SUPABASE_KEY.
func NewSupabase() (*Supabase, error) {
	apiURL := os.Getenv("SUPABASE_URL")
	apiKey := os.Getenv("SUPABASE_KEY")

	if apiURL == "" || apiKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL or SUPABASE_KEY is missing")
	}

	client, err := supabase.NewClient(apiURL, apiKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}

	return &Supabase{client: client}, nil
}

// NewSupabaseWithClient wraps an existing client (used by request-scoped
// callers that carry their own auth header).
func NewSupabaseWithClient(client *supabase.Client) *Supabase {
	return &Supabase{client: client}
}

func storeErr(op string, err error) error {
	return &types.StoreError{Op: op, Err: err}
}
