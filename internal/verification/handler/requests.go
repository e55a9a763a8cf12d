package handler

import (
	"errors"

	"github.com/asaskevich/govalidator"

	otpmodels "github.com/Coritp27/sysga-sub002/internal/otp/models"
	id "github.com/Coritp27/sysga-sub002/pkg/domain"
)

// RequestVerificationRequest is the POST /verify/request payload.
type RequestVerificationRequest struct {
	CardNumber string `json:"card_number"`
	Channel    string `json:"channel"`
}

func (r RequestVerificationRequest) Validate() error {
	if _, err := id.ParseCardNumber(r.CardNumber); err != nil {
		return err
	}
	if _, ok := otpmodels.ParseChannel(r.Channel); !ok {
		return errors.New("channel must be SMS or EMAIL")
	}
	return nil
}

func (r RequestVerificationRequest) ParsedCardNumber() id.CardNumber {
	number, _ := id.ParseCardNumber(r.CardNumber)
	return number
}

func (r RequestVerificationRequest) ParsedChannel() otpmodels.Channel {
	channel, _ := otpmodels.ParseChannel(r.Channel)
	return channel
}

// SubmitCodeRequest is the POST /verify/submit payload.
type SubmitCodeRequest struct {
	SessionID string `json:"session_id"`
	Code      string `json:"code"`
}

func (r SubmitCodeRequest) Validate() error {
	if _, err := id.ParseSessionID(r.SessionID); err != nil {
		return err
	}
	if len(r.Code) != 6 || !govalidator.IsNumeric(r.Code) {
		return errors.New("code must be exactly 6 digits")
	}
	return nil
}

func (r SubmitCodeRequest) ParsedSessionID() id.SessionID {
	sessionID, _ := id.ParseSessionID(r.SessionID)
	return sessionID
}
