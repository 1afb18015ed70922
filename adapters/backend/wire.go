package backend

import (
	"bytes"
	"encoding/json"

	"github.com/layer-3/learnchain/core"
	"github.com/shopspring/decimal"
)

type loginRequest struct {
	UserName string `json:"uName"`
	Password string `json:"pass"`
}

type loginResponse struct {
	Token         string `json:"token"`
	UserName      string `json:"uName"`
	Name          string `json:"name"`
	WalletAddress string `json:"walletAddress"`
	UUID          string `json:"uuid"`
}

type signupRequest struct {
	UserName      string `json:"uName"`
	Name          string `json:"name"`
	Password      string `json:"pass"`
	WalletAddress string `json:"walletAddress"`
}

type createCourseResponse struct {
	CourseUUID string `json:"courseUUID"`
}

type tokensRequest struct {
	Signature string `json:"signature"`
}

type wireToken struct {
	CourseUUID string `json:"courseUUID"`
}

type wireCourse struct {
	ID          flexString      `json:"id"`
	UUID        string          `json:"uuid"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Author      string          `json:"author"`
	Price       decimal.Decimal `json:"price"`
	CIDs        []string        `json:"cids"`
}

func (w wireCourse) toCore() core.Course {
	return core.Course{
		ID:          string(w.ID),
		UUID:        w.UUID,
		Title:       w.Title,
		Description: w.Description,
		Author:      w.Author,
		Price:       w.Price,
		ContentIDs:  w.CIDs,
	}
}

// flexString accepts identifiers the backend sends either as strings or numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = flexString(n.String())
		return nil
	}
}
