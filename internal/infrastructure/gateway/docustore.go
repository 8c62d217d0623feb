package gateway

import (
	"context"
	"errors"
	"net/http"

	pkgerrors "github.com/pkg/errors"

	"github.com/totegamma/carelog"
	"github.com/totegamma/carelog/client"
	"github.com/totegamma/carelog/internal/domain"
)

// TokenIssuer mints the bearer token that proves the sender's identity to the store.
type TokenIssuer interface {
	Token(ctx context.Context, sender, audience string) (string, error)
}

// DocustoreGateway implements usecase.DocumentGateway over the docustore REST api.
type DocustoreGateway struct {
	client *client.Client
	tokens TokenIssuer
}

func NewDocustoreGateway(cl *client.Client, tokens TokenIssuer) *DocustoreGateway {
	return &DocustoreGateway{
		client: cl,
		tokens: tokens,
	}
}

func (g *DocustoreGateway) Execute(ctx context.Context, sender string, contract string, msg carelog.ExecuteMessage, fee string, memo *string) (carelog.Receipt, error) {
	if g.tokens == nil {
		return carelog.Receipt{}, domain.SigningUnavailableError{Reason: "no key to authenticate " + sender}
	}
	token, err := g.tokens.Token(ctx, sender, contract)
	if err != nil {
		return carelog.Receipt{}, pkgerrors.Wrap(err, "failed to issue request token")
	}

	receipt, err := g.client.Execute(ctx, token, carelog.ExecuteRequest{
		Contract: contract,
		Sender:   sender,
		Message:  msg,
		Fee:      fee,
		Memo:     memo,
	})
	if err != nil {
		var se client.StatusError
		if errors.As(err, &se) && se.Code == http.StatusConflict && msg.Set != nil {
			return carelog.Receipt{}, domain.ConflictError{URI: carelog.ComposeDocumentURI(msg.Set.Owner, msg.Set.Collection, msg.Set.DocumentID)}
		}
		return carelog.Receipt{}, pkgerrors.Wrap(err, "execute failed")
	}
	return receipt, nil
}

func (g *DocustoreGateway) QueryContractSmart(ctx context.Context, contract string, query carelog.QueryMessage) (carelog.QueryResponse, error) {
	resp, err := g.client.Query(ctx, carelog.QueryRequest{
		Contract: contract,
		Query:    query,
	})
	if err != nil {
		return carelog.QueryResponse{}, pkgerrors.Wrap(err, "query failed")
	}
	return resp, nil
}
