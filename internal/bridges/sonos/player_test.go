package sonos

import (
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakePlayer is an httptest-backed ZonePlayer that answers the SOAP
// actions the bridge uses.
type fakePlayer struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	volume   int
	actions  []string
	lastArgs map[string]string
	fault    string // when set, every SOAP call faults with this UPnP error code
	zgs      string // ZoneGroupState document
	udn      string

	descriptions int
}

func newFakePlayer(t *testing.T) *fakePlayer {
	t.Helper()
	p := &fakePlayer{t: t, volume: 20, udn: "uuid:RINCON_000E58AABBCC01400"}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /MediaRenderer/RenderingControl/Control", p.handleSOAP)
	mux.HandleFunc("POST /MediaRenderer/AVTransport/Control", p.handleSOAP)
	mux.HandleFunc("POST /ZoneGroupTopology/Control", p.handleSOAP)
	mux.HandleFunc("GET /xml/device_description.xml", func(w http.ResponseWriter, _ *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.descriptions++
		fmt.Fprintf(w, `<?xml version="1.0"?><root xmlns="urn:schemas-upnp-org:device-1-0"><device><UDN>%s</UDN><roomName>Kitchen</roomName></device></root>`, p.udn)
	})
	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

// host returns host:port for the fake.
func (p *fakePlayer) host() string {
	return strings.TrimPrefix(p.server.URL, "http://")
}

func (p *fakePlayer) handleSOAP(w http.ResponseWriter, r *http.Request) {
	soapAction := strings.Trim(r.Header.Get("SOAPACTION"), `"`)
	_, action, _ := strings.Cut(soapAction, "#")
	urn, _, _ := strings.Cut(soapAction, "#")

	body, _ := io.ReadAll(r.Body)
	args := decodeArgs(p.t, body)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, action)
	p.lastArgs = args

	if p.fault != "" {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, `<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body><s:Fault><faultcode>s:Client</faultcode><faultstring>UPnPError</faultstring><detail><UPnPError xmlns="urn:schemas-upnp-org:control-1-0"><errorCode>%s</errorCode></UPnPError></detail></s:Fault></s:Body></s:Envelope>`, p.fault)
		return
	}

	out := ""
	switch action {
	case "GetVolume":
		out = fmt.Sprintf("<CurrentVolume>%d</CurrentVolume>", p.volume)
	case "SetVolume":
		fmt.Sscanf(args["DesiredVolume"], "%d", &p.volume)
	case "GetZoneGroupState":
		out = "<ZoneGroupState>" + html.EscapeString(p.zgs) + "</ZoneGroupState>"
	}
	fmt.Fprintf(w, `<?xml version="1.0"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/"><s:Body><u:%sResponse xmlns:u="%s">%s</u:%sResponse></s:Body></s:Envelope>`,
		action, urn, out, action)
}

func (p *fakePlayer) setFault(code string) {
	p.mu.Lock()
	p.fault = code
	p.mu.Unlock()
}

func (p *fakePlayer) setZoneGroupState(doc string) {
	p.mu.Lock()
	p.zgs = doc
	p.mu.Unlock()
}

func (p *fakePlayer) Descriptions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.descriptions
}

func (p *fakePlayer) Actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.actions...)
}

func (p *fakePlayer) Args() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastArgs
}

// actionArgs collects the child elements of a SOAP action element.
type actionArgs struct {
	Values []struct {
		XMLName xml.Name
		Value   string `xml:",chardata"`
	} `xml:",any"`
}

func decodeArgs(t *testing.T, body []byte) map[string]string {
	t.Helper()
	var env struct {
		Body struct {
			Inner []byte `xml:",innerxml"`
		} `xml:"Body"`
	}
	if err := xml.Unmarshal(body, &env); err != nil {
		t.Errorf("request envelope: %v", err)
		return nil
	}
	var ar actionArgs
	if err := xml.Unmarshal(env.Body.Inner, &ar); err != nil {
		t.Errorf("request action: %v", err)
		return nil
	}
	args := make(map[string]string)
	for _, v := range ar.Values {
		args[v.XMLName.Local] = v.Value
	}
	return args
}
