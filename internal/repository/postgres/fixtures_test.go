package postgres

import "apistarter/internal/model"

func userFixture(email string) *model.User {
	return &model.User{
		Email:        email,
		PasswordHash: "$2a$10$hash",
	}
}
