package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/cryptochain/business/web/errs"
)

var client = http.Client{
	Timeout: 10 * time.Second,
}

// get decodes the JSON document served at the url into v.
func get(url string, v any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

// post sends v to the url as a JSON document.
func post(url string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	return nil
}

func decodeError(resp *http.Response) error {
	var er errs.Response
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Error == "" {
		return fmt.Errorf("node responded %s", resp.Status)
	}

	if len(er.Fields) > 0 {
		return fmt.Errorf("node responded %s: %s: %v", resp.Status, er.Error, er.Fields)
	}

	return fmt.Errorf("node responded %s: %s", resp.Status, er.Error)
}
