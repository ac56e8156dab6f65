package pawsdk

import (
	"context"
	"net/http"
)

const petsPath = "/pets"

func (c *Client) ListPets(ctx context.Context) ([]Pet, error) {
	return fetch[[]Pet](ctx, c, petsPath)
}

func (c *Client) GetPet(ctx context.Context, id int64) (*Pet, error) {
	pet, err := fetch[Pet](ctx, c, petPath(id))
	if err != nil {
		return nil, err
	}
	return &pet, nil
}

func (c *Client) CreatePet(ctx context.Context, in PetInput) (*Pet, error) {
	return mutate[Pet](ctx, c, http.MethodPost, petsPath, in, petsPath)
}

func (c *Client) UpdatePet(ctx context.Context, id int64, in PetInput) (*Pet, error) {
	return mutate[Pet](ctx, c, http.MethodPut, petPath(id), in, petsPath, petPath(id))
}

func (c *Client) DeletePet(ctx context.Context, id int64) error {
	return remove(ctx, c, petPath(id), petsPath, petPath(id))
}
