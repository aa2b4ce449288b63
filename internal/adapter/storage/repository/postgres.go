package repository

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/membora/pointsledger/internal/adapter/storage"
	"github.com/membora/pointsledger/internal/core/domain"
)

// Repository is the Postgres balance store. The conditional debit is a
// single UPDATE evaluated server-side, so two concurrent debits on one
// account can never both succeed when only one is affordable.
type Repository struct {
	db *storage.DB
}

func NewRepository(db *storage.DB) (*Repository, error) {
	return &Repository{db: db}, nil
}

func (r *Repository) CreateAccount(ctx context.Context, user *domain.User) (*domain.Account, error) {
	account := domain.Account{Login: user.Login, Password: user.Password}

	statement := r.db.QueryBuilder.
		Insert("accounts").
		Columns("login", "password", "points_balance").
		Values(user.Login, user.Password, 0).
		Suffix("RETURNING user_id")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&account.UserID)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, domain.ErrConflictingData
		}
		return nil, err
	}

	return &account, nil
}

func (r *Repository) GetUserByLogin(ctx context.Context, login string) (*domain.User, error) {
	statement := r.db.QueryBuilder.
		Select("user_id", "login", "password").
		From("accounts").
		Where(sq.Eq{"login": login})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	user := domain.User{}

	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&user.ID,
		&user.Login,
		&user.Password,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}

	return &user, nil
}

func (r *Repository) ReadBalance(ctx context.Context, userID uint64) (int64, error) {
	statement := r.db.QueryBuilder.
		Select("points_balance").
		From("accounts").
		Where(sq.Eq{"user_id": userID})

	sql, args, err := statement.ToSql()
	if err != nil {
		return 0, err
	}

	var balance int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrDataNotFound
		}
		return 0, err
	}

	return balance, nil
}

// DebitIfSufficient decrements the balance only when it covers the amount.
// The sufficiency check and the decrement are one statement; the ledger row
// is written in the same transaction, so other callers observe either both
// effects or neither.
func (r *Repository) DebitIfSufficient(ctx context.Context, userID uint64, amount int64, productID uint64) (*domain.DebitResult, error) {
	result := domain.DebitResult{}

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		statement := r.db.QueryBuilder.
			Update("accounts").
			Set("points_balance", sq.Expr("points_balance - ?", amount)).
			Where(sq.Eq{"user_id": userID}).
			Where(sq.Expr("points_balance >= ?", amount)).
			Suffix("RETURNING points_balance")

		sql, args, err := statement.ToSql()
		if err != nil {
			return err
		}

		err = tx.QueryRow(ctx, sql, args...).Scan(&result.Balance)
		if err == nil {
			result.Applied = true

			insertSt := r.db.QueryBuilder.
				Insert("redemptions").
				Columns("user_id", "product_id", "points_spent", "processed_at").
				Values(userID, productID, amount, time.Now())

			sql, args, err = insertSt.ToSql()
			if err != nil {
				return err
			}

			_, err = tx.Exec(ctx, sql, args...)
			return err
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		// Zero rows updated: either the account is missing or the balance
		// does not cover the amount. Read back to tell the two apart.
		selectSt := r.db.QueryBuilder.
			Select("points_balance").
			From("accounts").
			Where(sq.Eq{"user_id": userID})

		sql, args, err = selectSt.ToSql()
		if err != nil {
			return err
		}

		err = tx.QueryRow(ctx, sql, args...).Scan(&result.Balance)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrDataNotFound
			}
			return err
		}

		result.Applied = false
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *Repository) Credit(ctx context.Context, userID uint64, amount int64) (int64, error) {
	statement := r.db.QueryBuilder.
		Update("accounts").
		Set("points_balance", sq.Expr("points_balance + ?", amount)).
		Where(sq.Eq{"user_id": userID}).
		Suffix("RETURNING points_balance")

	sql, args, err := statement.ToSql()
	if err != nil {
		return 0, err
	}

	var balance int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrDataNotFound
		}
		return 0, err
	}

	return balance, nil
}

func (r *Repository) ListRedemptionsByUser(ctx context.Context, userID uint64) ([]*domain.Redemption, error) {
	statement := r.db.QueryBuilder.
		Select("id", "user_id", "product_id", "points_spent", "processed_at").
		From("redemptions").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("processed_at DESC")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*domain.Redemption, 0)
	for rows.Next() {
		redemption := domain.Redemption{}
		err := rows.Scan(
			&redemption.ID,
			&redemption.UserID,
			&redemption.ProductID,
			&redemption.PointsSpent,
			&redemption.ProcessedAt,
		)
		if err != nil {
			return nil, err
		}
		list = append(list, &redemption)
	}

	err = rows.Err()
	if err != nil {
		return nil, err
	}

	return list, nil
}
