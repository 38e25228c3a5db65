package stock

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/infinity-cafe/cafe-backend/pkg/config"
	pkgerrors "github.com/infinity-cafe/cafe-backend/pkg/errors"
)

// HTTPRecipeSource fetches recipes from the menu service over its batch
// endpoint, one round trip per order regardless of batch size.
type HTTPRecipeSource struct {
	baseURL string
	client  *http.Client
}

func NewHTTPRecipeSource(cfg config.MenuConfig) *HTTPRecipeSource {
	return &HTTPRecipeSource{
		baseURL: cfg.ServiceURL,
		client:  &http.Client{Timeout: cfg.RecipeTimeout},
	}
}

type batchRecipeRequest struct {
	MenuNames []string `json:"menu_names"`
}

type batchRecipeResponse struct {
	Recipes map[string][]RecipeLine `json:"recipes"`
}

func (s *HTTPRecipeSource) FetchRecipes(ctx context.Context, menuNames []string) (map[string][]RecipeLine, error) {
	body, err := json.Marshal(batchRecipeRequest{MenuNames: menuNames})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/recipes/batch", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "menu service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("menu service returned %d: %s", resp.StatusCode, snippet))
	}

	var payload batchRecipeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding recipe batch response")
	}
	if payload.Recipes == nil {
		payload.Recipes = map[string][]RecipeLine{}
	}
	return payload.Recipes, nil
}
