package router

import (
	"net/http"
	"strings"

	"github.com/smazurov/stripnode/internal/events"
	"github.com/smazurov/stripnode/internal/strip"
	"github.com/smazurov/stripnode/internal/wire"
)

// Greeting is the body of GET /.
const Greeting = "stripnode LED strip controller"

func (r *Router) registerRoutes() {
	r.Handle(wire.MethodGet, "/", r.getRoot)
	r.Handle(wire.MethodGet, "/strip/status", r.getStatus)
	r.Handle(wire.MethodGet, "/strip/modes", r.getModes)
	r.Handle(wire.MethodGet, "/strip/mode", r.getMode)
	r.Handle(wire.MethodGet, "/strip/color", r.getColor)
	r.Handle(wire.MethodPut, "/strip/status/on", r.putPower(true))
	r.Handle(wire.MethodPut, "/strip/status/off", r.putPower(false))
	r.Handle(wire.MethodPut, "/strip/mode", r.putMode)
	r.Handle(wire.MethodPut, "/strip/color", r.putColor)
}

func (r *Router) getRoot(*wire.Request) (wire.Response, error) {
	return wire.Text(http.StatusOK, Greeting), nil
}

func (r *Router) getStatus(*wire.Request) (wire.Response, error) {
	if r.state.Power() {
		return wire.Text(http.StatusOK, "ON"), nil
	}
	return wire.Text(http.StatusOK, "OFF"), nil
}

func (r *Router) getModes(*wire.Request) (wire.Response, error) {
	return wire.Text(http.StatusOK, strings.Join(strip.Names(), ",")), nil
}

func (r *Router) getMode(*wire.Request) (wire.Response, error) {
	return wire.Text(http.StatusOK, r.state.Mode().Kind.String()), nil
}

func (r *Router) getColor(*wire.Request) (wire.Response, error) {
	body, err := r.state.Color().MarshalJSON()
	if err != nil {
		return wire.Response{}, err
	}
	return wire.JSON(http.StatusOK, body), nil
}

func (r *Router) putPower(on bool) HandlerFunc {
	return func(*wire.Request) (wire.Response, error) {
		r.state.SetPower(on)
		r.logger.Info("Strip power changed", "power", on)
		r.stateChanged(events.ChangePower)
		return wire.Empty(http.StatusOK), nil
	}
}

func (r *Router) putMode(req *wire.Request) (wire.Response, error) {
	mode, err := strip.ParseMode(string(req.Body))
	if err != nil {
		return wire.Response{}, err
	}
	if err := r.state.SetMode(mode); err != nil {
		return wire.Response{}, err
	}
	r.logger.Info("Strip mode changed", "mode", r.state.Mode().String())
	r.stateChanged(events.ChangeMode)
	return wire.Empty(http.StatusOK), nil
}

func (r *Router) putColor(req *wire.Request) (wire.Response, error) {
	c, err := strip.ParseColorJSON(req.Body)
	if err != nil {
		return wire.Response{}, err
	}
	r.state.SetColor(c)
	r.logger.Info("Strip color changed", "color", c.String())
	r.stateChanged(events.ChangeColor)
	return wire.Empty(http.StatusOK), nil
}
