package httpx

import (
	"net/http"

	"github.com/MarvinPescos/balancehub/internal/service/cipher"
	"github.com/MarvinPescos/balancehub/internal/service/joke"
	"github.com/MarvinPescos/balancehub/internal/service/qr"
)

func (r *Router) registerActivities() {
	r.api("POST", "/activities/cipher/atbash", r.requireAuth(r.handleAtbash))
	r.api("POST", "/activities/cipher/caesar", r.requireAuth(r.handleCaesar))
	r.api("POST", "/activities/cipher/vigenere", r.requireAuth(r.handleVigenere))
	r.api("POST", "/activities/qr_generator/generate", r.requireAuth(r.handleQRGenerate))
	r.api("GET", "/activities/trivia/question", r.requireAuth(r.handleTriviaQuestion))
	r.api("POST", "/activities/joke_cipher_qr/generate", r.requireAuth(r.handleJokeGenerate))
}

func (r *Router) handleAtbash(w http.ResponseWriter, req *http.Request) {
	var body atbashRequest
	if !decode(w, req, &body) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": cipher.EncodeAtbash(body.Text)})
}

func (r *Router) handleCaesar(w http.ResponseWriter, req *http.Request) {
	var body caesarRequest
	if !decode(w, req, &body) {
		return
	}
	out, err := cipher.EncodeCaesar(body.Text, body.Shift)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": out})
}

func (r *Router) handleVigenere(w http.ResponseWriter, req *http.Request) {
	var body vigenereRequest
	if !decode(w, req, &body) {
		return
	}
	out, err := cipher.EncodeVigenere(body.Text, body.Key)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": out})
}

func (r *Router) handleQRGenerate(w http.ResponseWriter, req *http.Request) {
	var body qrRequest
	if !decode(w, req, &body) {
		return
	}
	encoded, err := qr.Base64(body.Text)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"qr_code_base64": encoded})
}

func (r *Router) handleTriviaQuestion(w http.ResponseWriter, req *http.Request) {
	q, err := r.services.Trivia.Question(req.Context())
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (r *Router) handleJokeGenerate(w http.ResponseWriter, req *http.Request) {
	var body jokeRequest
	if !decode(w, req, &body) {
		return
	}
	var in joke.Request
	if body.CipherType != nil {
		in.CipherType = *body.CipherType
	}
	if body.CaesarShift != nil {
		in.CaesarShift = *body.CaesarShift
	}
	if body.VigenereKey != nil {
		in.VigenereKey = *body.VigenereKey
	}
	result, err := r.services.Joke.Generate(req.Context(), in)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
