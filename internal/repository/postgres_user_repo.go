package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/vetracker/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用した利用者リポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, secret_index, COALESCE(secret_ciphertext, ''), name, pin_hash, created_at`

func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.SecretIndex, &user.SecretCiphertext, &user.Name, &user.PinHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID は指定IDの利用者を取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := withReadRetry(ctx, func(ctx context.Context) (*model.User, error) {
		return scanUser(r.db.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`,
			id,
		))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindBySecretIndex はシークレットの検索キーで利用者を取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindBySecretIndex(ctx context.Context, secretIndex string) (*model.User, error) {
	user, err := withReadRetry(ctx, func(ctx context.Context) (*model.User, error) {
		return scanUser(r.db.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE secret_index = $1`,
			secretIndex,
		))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find user by secret index: %w", err)
	}
	return user, nil
}

// Create は利用者を作成する。
// secret_ciphertextが空の場合はNULLとして保存する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	var ciphertext sql.NullString
	if user.SecretCiphertext != "" {
		ciphertext = sql.NullString{String: user.SecretCiphertext, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, secret_index, secret_ciphertext, name, pin_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.SecretIndex, ciphertext, user.Name, user.PinHash, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
