package services

import (
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	apperrors "hearth/internal/errors"
	"hearth/internal/ledger"
	"hearth/internal/models"
	"hearth/internal/pagination"
)

// transferService moves money between accounts. A transfer debits the
// source and credits the destination by the same amount, so the
// combined balance of the pair never changes.
type transferService struct {
	db *gorm.DB
}

// NewTransferService creates a new TransferServicer.
func NewTransferService(db *gorm.DB) TransferServicer {
	return &transferService{db: db}
}

// CreateTransfer moves money from one account to another. Both accounts
// must be accessible in the requested scope and the source must hold
// enough balance.
func (s *transferService) CreateTransfer(userID uint, family bool, fromAccountID, toAccountID uint, amount int64, description string, date time.Time) (*models.Transfer, error) {
	if amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	if fromAccountID == toAccountID {
		return nil, apperrors.ErrSameAccountTransfer
	}
	if date.IsZero() {
		date = time.Now()
	}

	transfer := &models.Transfer{
		UserID:        userID,
		FromAccountID: fromAccountID,
		ToAccountID:   toAccountID,
		Amount:        amount,
		Description:   description,
		Date:          date,
		IsFamily:      family,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		from, to, err := ledger.FetchPair(tx, fromAccountID, toAccountID)
		if err != nil {
			return err
		}
		if err := checkScopeAccess(tx, userID, from.UserID, from.IsFamily, family); err != nil {
			return err
		}
		if err := checkScopeAccess(tx, userID, to.UserID, to.IsFamily, family); err != nil {
			return err
		}

		if err := ledger.Apply(from, -amount); err != nil {
			return err
		}
		if err := ledger.Apply(to, amount); err != nil {
			return err
		}

		if err := tx.Create(transfer).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return ledger.Save(tx, from, to)
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

// ListTransfers returns the transfers visible in the requested scope,
// newest first.
func (s *transferService) ListTransfers(userID uint, family bool, page pagination.PageRequest) (*pagination.PageResponse[models.Transfer], error) {
	page.Defaults()

	query, err := s.scopedQuery(userID, family)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := query.Model(&models.Transfer{}).Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transfers []models.Transfer
	err = query.
		Preload("FromAccount").
		Preload("ToAccount").
		Scopes(pagination.Paginate(page)).
		Order("transfers.created_at DESC").
		Find(&transfers).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(transfers, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetTransfer returns a single transfer after scope authorization.
func (s *transferService) GetTransfer(userID, transferID uint, family bool) (*models.Transfer, error) {
	return s.loadAuthorized(s.db, userID, transferID, family, true)
}

// UpdateTransfer rewrites a transfer. The old movement is reverted
// first: the old source gets its money back and the old destination
// gives it up, failing with ErrRevertUnderflow when the destination no
// longer holds enough. The new movement is then applied with the usual
// source balance check. Accounts shared between the old and new pair
// see both effects on the same in-memory balance.
func (s *transferService) UpdateTransfer(userID, transferID uint, family bool, fromAccountID, toAccountID uint, amount int64, description string, date time.Time) (*models.Transfer, error) {
	if amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	if fromAccountID == toAccountID {
		return nil, apperrors.ErrSameAccountTransfer
	}

	var updated *models.Transfer
	err := s.db.Transaction(func(tx *gorm.DB) error {
		transfer, err := s.loadAuthorized(tx, userID, transferID, family, false)
		if err != nil {
			return err
		}

		accounts, err := fetchAccountSet(tx, transfer.FromAccountID, transfer.ToAccountID, fromAccountID, toAccountID)
		if err != nil {
			return err
		}
		newFrom := accounts[fromAccountID]
		newTo := accounts[toAccountID]
		for _, account := range []*models.Account{
			accounts[transfer.FromAccountID], accounts[transfer.ToAccountID], newFrom, newTo,
		} {
			if err := checkScopeAccess(tx, userID, account.UserID, account.IsFamily, family); err != nil {
				return err
			}
		}

		ledger.Revert(accounts[transfer.FromAccountID], -transfer.Amount)
		if err := ledger.RevertChecked(accounts[transfer.ToAccountID], transfer.Amount); err != nil {
			return err
		}

		if err := ledger.Apply(newFrom, -amount); err != nil {
			return err
		}
		if err := ledger.Apply(newTo, amount); err != nil {
			return err
		}

		transfer.FromAccountID = fromAccountID
		transfer.ToAccountID = toAccountID
		transfer.Amount = amount
		transfer.Description = description
		transfer.UserID = userID
		if !date.IsZero() {
			transfer.Date = date
		}
		if err := tx.Save(transfer).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		distinct := make([]*models.Account, 0, len(accounts))
		for _, account := range accounts {
			distinct = append(distinct, account)
		}
		if err := ledger.Save(tx, distinct...); err != nil {
			return err
		}
		updated = transfer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTransfer removes a transfer and reverts it: the source gets its
// money back, the destination gives it up. The destination revert is
// guarded; deleting fails when the destination has since spent the money.
func (s *transferService) DeleteTransfer(userID, transferID uint, family bool) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		transfer, err := s.loadAuthorized(tx, userID, transferID, family, false)
		if err != nil {
			return err
		}

		from, to, err := ledger.FetchPair(tx, transfer.FromAccountID, transfer.ToAccountID)
		if err != nil {
			return err
		}
		if err := checkScopeAccess(tx, userID, from.UserID, from.IsFamily, family); err != nil {
			return err
		}
		if err := checkScopeAccess(tx, userID, to.UserID, to.IsFamily, family); err != nil {
			return err
		}
		ledger.Revert(from, -transfer.Amount)
		if err := ledger.RevertChecked(to, transfer.Amount); err != nil {
			return err
		}

		if err := tx.Delete(transfer).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return ledger.Save(tx, from, to)
	})
}

func (s *transferService) scopedQuery(userID uint, family bool) (*gorm.DB, error) {
	if !family {
		return s.db.Where("transfers.user_id = ? AND transfers.is_family = ?", userID, false), nil
	}

	familyID, err := requireMembership(s.db, userID)
	if err != nil {
		return nil, err
	}
	return s.db.
		Joins("JOIN family_members ON family_members.user_id = transfers.user_id AND family_members.deleted_at IS NULL").
		Where("family_members.family_id = ? AND transfers.is_family = ?", familyID, true), nil
}

func (s *transferService) loadAuthorized(db *gorm.DB, userID, transferID uint, family, preload bool) (*models.Transfer, error) {
	var transfer models.Transfer
	query := db
	if preload {
		query = query.Preload("FromAccount").Preload("ToAccount")
	}
	if err := query.First(&transfer, transferID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransferNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := checkScopeAccess(db, userID, transfer.UserID, transfer.IsFamily, family); err != nil {
		return nil, err
	}
	return &transfer, nil
}

// fetchAccountSet locks and loads the distinct accounts among ids, in
// ascending ID order so overlapping updates cannot deadlock.
func fetchAccountSet(tx *gorm.DB, ids ...uint) (map[uint]*models.Account, error) {
	distinct := make([]uint, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			distinct = append(distinct, id)
		}
	}
	sort.Slice(distinct, func(i, j int) bool { return distinct[i] < distinct[j] })

	accounts := make(map[uint]*models.Account, len(distinct))
	for _, id := range distinct {
		account, err := ledger.Fetch(tx, id)
		if err != nil {
			return nil, err
		}
		accounts[id] = account
	}
	return accounts, nil
}
