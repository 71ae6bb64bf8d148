package httputil

import (
	"net/http"
	"time"
)

type Clients struct {
	API *http.Client // PriceLabs calls
}

func NewClients() *Clients {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 4

	return &Clients{
		API: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}
