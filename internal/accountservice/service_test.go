package accountservice

import (
	"context"
	"testing"

	"github.com/go-petr/fx-ledger/internal/domain"
	"github.com/go-petr/fx-ledger/pkg/currencypkg"
	"github.com/go-petr/fx-ledger/pkg/errorspkg"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var decimalComparer = cmp.Comparer(func(x, y decimal.Decimal) bool {
	return x.Equal(y)
})

func TestGetAccounts(t *testing.T) {
	t.Parallel()

	owned := []domain.Account{
		{ID: 1, OwnerID: 7, Type: "checking", Currency: currencypkg.EUR, Balance: decimal.RequireFromString("50")},
		{ID: 2, OwnerID: 7, Type: "checking", Currency: currencypkg.USD, Balance: decimal.RequireFromString("1000")},
	}

	testCases := []struct {
		name      string
		buildStub func(repo *MockRepo)
		want      []domain.Account
		wantErr   error
	}{
		{
			name: "OK",
			buildStub: func(repo *MockRepo) {
				repo.EXPECT().ListByOwner(gomock.Any(), int64(7)).Times(1).Return(owned, nil)
			},
			want: owned,
		},
		{
			name: "NoAccounts",
			buildStub: func(repo *MockRepo) {
				repo.EXPECT().ListByOwner(gomock.Any(), int64(7)).Times(1).Return(nil, nil)
			},
			want: []domain.Account{},
		},
		{
			name: "StoreUnavailable",
			buildStub: func(repo *MockRepo) {
				repo.EXPECT().ListByOwner(gomock.Any(), int64(7)).Times(1).Return(nil, domain.ErrEngineUnavailable)
			},
			wantErr: domain.ErrEngineUnavailable,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := NewMockRepo(ctrl)
			tc.buildStub(repo)

			got, err := New(repo).GetAccounts(context.Background(), 7)
			require.ErrorIs(t, err, tc.wantErr)

			if diff := cmp.Diff(tc.want, got, decimalComparer); diff != "" {
				t.Errorf("GetAccounts() returned unexpected difference (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGetAccountBalance(t *testing.T) {
	t.Parallel()

	acc := domain.Account{ID: 3, OwnerID: 7, Currency: currencypkg.USD, Balance: decimal.RequireFromString("12.34")}

	testCases := []struct {
		name      string
		accountID int64
		buildStub func(repo *MockRepo)
		want      domain.Account
		wantErr   error
	}{
		{
			name:      "OK",
			accountID: 3,
			buildStub: func(repo *MockRepo) {
				repo.EXPECT().GetForOwner(gomock.Any(), int64(3), int64(7)).Times(1).Return(acc, nil)
			},
			want: acc,
		},
		{
			name:      "NotOwned",
			accountID: 4,
			buildStub: func(repo *MockRepo) {
				repo.EXPECT().GetForOwner(gomock.Any(), int64(4), int64(7)).Times(1).
					Return(domain.Account{}, domain.ErrAccountNotFound)
			},
			wantErr: domain.ErrInvalidReference,
		},
		{
			name:      "NonPositiveID",
			accountID: 0,
			buildStub: func(repo *MockRepo) {
				repo.EXPECT().GetForOwner(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:      "InternalError",
			accountID: 3,
			buildStub: func(repo *MockRepo) {
				repo.EXPECT().GetForOwner(gomock.Any(), int64(3), int64(7)).Times(1).
					Return(domain.Account{}, errorspkg.ErrInternal)
			},
			wantErr: errorspkg.ErrInternal,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := NewMockRepo(ctrl)
			tc.buildStub(repo)

			got, err := New(repo).GetAccountBalance(context.Background(), 7, tc.accountID)
			require.ErrorIs(t, err, tc.wantErr)

			if diff := cmp.Diff(tc.want, got, decimalComparer); diff != "" {
				t.Errorf("GetAccountBalance() returned unexpected difference (-want +got):\n%s", diff)
			}
		})
	}
}
