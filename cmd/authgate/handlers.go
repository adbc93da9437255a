package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/MrEthical07/authgate"
	"github.com/MrEthical07/authgate/middleware"
)

const maxBodyBytes = 64 << 10

type api struct {
	engine *authgate.Engine
}

func newRouter(engine *authgate.Engine, mw middleware.Config, metrics http.Handler) http.Handler {
	a := &api{engine: engine}
	withCtx := middleware.RequestContext(mw)

	mux := http.NewServeMux()
	mux.Handle("POST /login", withCtx(http.HandlerFunc(a.login)))
	mux.Handle("POST /logout", withCtx(http.HandlerFunc(a.logout)))
	mux.Handle("POST /refresh", withCtx(http.HandlerFunc(a.refresh)))
	mux.Handle("GET /me", middleware.Guard(engine, mw)(http.HandlerFunc(a.me)))
	mux.Handle("POST /captcha", withCtx(http.HandlerFunc(a.createCaptcha)))
	mux.Handle("POST /captcha/verify", withCtx(http.HandlerFunc(a.verifyCaptcha)))
	mux.Handle("POST /codes/send", withCtx(http.HandlerFunc(a.sendCode)))
	mux.Handle("POST /codes/verify", withCtx(http.HandlerFunc(a.verifyCode)))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	return mux
}

type loginBody struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	CaptchaID     string `json:"captcha_id"`
	CaptchaAnswer string `json:"captcha_answer"`
}

func (a *api) login(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if !decodeBody(w, r, &body) {
		return
	}
	res, err := a.engine.Login(r.Context(), authgate.LoginRequest{
		Username:      body.Username,
		Password:      body.Password,
		CaptchaID:     body.CaptchaID,
		CaptchaAnswer: body.CaptchaAnswer,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, res)
}

func (a *api) logout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		middleware.WriteError(w, authgate.ErrInvalidToken)
		return
	}
	if err := a.engine.Logout(r.Context(), token); err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) refresh(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		middleware.WriteError(w, authgate.ErrInvalidToken)
		return
	}
	res, err := a.engine.Refresh(r.Context(), token)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, res)
}

func (a *api) me(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFromContext(r.Context())
	middleware.WriteJSON(w, http.StatusOK, p)
}

type captchaBody struct {
	Action     string `json:"action"`
	Identifier string `json:"identifier"`
}

func (a *api) createCaptcha(w http.ResponseWriter, r *http.Request) {
	var body captchaBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Action == "" {
		body.Action = authgate.ActionLogin
	}
	if strings.TrimSpace(body.Identifier) == "" {
		middleware.WriteError(w, authgate.ErrInvalidRequest)
		return
	}
	ch, err := a.engine.CreateCaptcha(r.Context(), body.Action, body.Identifier)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, ch)
}

type captchaAnswerBody struct {
	CaptchaID string `json:"captcha_id"`
	Answer    string `json:"answer"`
}

func (a *api) verifyCaptcha(w http.ResponseWriter, r *http.Request) {
	var body captchaAnswerBody
	if !decodeBody(w, r, &body) {
		return
	}
	ok, err := a.engine.VerifyCaptcha(r.Context(), body.CaptchaID, body.Answer)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"valid": ok})
}

type sendCodeBody struct {
	Purpose string `json:"purpose"`
	Channel string `json:"channel"`
	Address string `json:"address"`
}

func (a *api) sendCode(w http.ResponseWriter, r *http.Request) {
	var body sendCodeBody
	if !decodeBody(w, r, &body) {
		return
	}
	err := a.engine.SendVerificationCode(r.Context(), authgate.CodeRequest{
		Purpose: body.Purpose,
		Channel: authgate.Channel(body.Channel),
		Address: body.Address,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type verifyCodeBody struct {
	Purpose string `json:"purpose"`
	Channel string `json:"channel"`
	Address string `json:"address"`
	Code    string `json:"code"`
}

func (a *api) verifyCode(w http.ResponseWriter, r *http.Request) {
	var body verifyCodeBody
	if !decodeBody(w, r, &body) {
		return
	}
	err := a.engine.VerifyCode(r.Context(), authgate.CodeCheck{
		Purpose: body.Purpose,
		Channel: authgate.Channel(body.Channel),
		Address: body.Address,
		Code:    body.Code,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		middleware.WriteError(w, authgate.ErrInvalidRequest)
		return false
	}
	return true
}
