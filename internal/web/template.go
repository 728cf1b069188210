package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/radmon/internal/logic"
	"github.com/sweeney/radmon/internal/menu"
	"github.com/sweeney/radmon/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"cumulative": func(inst status.Instrument) string {
		return logic.FormatCumulativeDose(inst.CumulativeDose, inst.Live.Unit, inst.CountRate)
	},
	"placeholder": func() string { return menu.PlaceholderText },
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Radiation Monitor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.reading { font-size: 2em; }
.alarm { color: red; font-weight: bold; }
.alarm.blink { visibility: hidden; }
.normal { color: green; }
.connected { color: green; }
.disconnected { color: red; }
.selected { background: #eee; font-weight: bold; }
.panel button { font-family: monospace; padding: 6px 10px; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Radiation Monitor<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

{{with .Instrument}}
<p id="reading" class="reading {{if .AlarmActive}}alarm{{if .BlinkPhase}} blink{{end}}{{else}}normal{{end}}">{{if .Reading.Display}}{{.Reading.Display}}{{else}}--{{end}}</p>

<h2>Radiation</h2>
<table>
<tr><th>Count rate</th><td id="cps">{{.CountRate}} cps</td></tr>
<tr><th>Time constant</th><td id="tc">{{.TimeConstant}}</td></tr>
<tr><th>Cumulative dose</th><td id="cum">{{cumulative .}}</td></tr>
<tr><th>Integration</th><td>{{.Live.CumDoseMode}}{{if eq (printf "%s" .Live.CumDoseMode) "Manual"}} ({{.RunState}}){{end}}</td></tr>
<tr><th>Alarm</th><td id="alarm" class="{{if .AlarmActive}}alarm{{else}}normal{{end}}">{{if .AlarmActive}}ALARM{{else}}NORMAL{{end}} at {{printf "%.0f" .Live.AlarmSetPoint}} mR/h</td></tr>
<tr><th>Samples</th><td id="samples">{{.Samples}}</td></tr>
</table>

<h2>Menu</h2>
<p id="menu-title">{{.Menu.Title}}</p>
{{if .Menu.Rows}}<table>
{{range .Menu.Rows}}<tr><td{{if .Selected}} class="selected"{{end}}>{{if .Selected}}&gt; {{end}}{{.Label}}</td></tr>
{{end}}</table>{{end}}
{{if .Menu.Table}}<table>
<tr><th>CPS</th><th>Dose</th></tr>
{{range .Menu.Table}}<tr>{{with .CountRate}}<td{{if .Editing}} class="selected"{{end}}>{{if .Placeholder}}{{placeholder}}{{else}}{{.Text}}{{end}}</td>{{end}}{{with .Dose}}<td{{if .Editing}} class="selected"{{end}}>{{if .Placeholder}}{{placeholder}}{{else}}{{.Text}}{{end}}</td>{{end}}</tr>
{{end}}</table>{{end}}
{{if .Menu.Digits}}<p id="digits">{{range $i, $d := .Menu.Digits}}{{if eq $i 1}}.{{end}}{{if eq $i $.Instrument.Menu.Digit}}[{{$d}}]{{else}}{{$d}}{{end}}{{end}}</p>{{end}}
{{if .Menu.Message}}<p id="message">{{.Menu.Message}}</p>{{end}}
{{if .Notice}}<p id="notice">{{.Notice}}</p>{{end}}

<div class="panel">
<button data-button="PRG">PRG</button>
<button data-button="UP">UP</button>
<button data-button="DOWN">DOWN</button>
<button data-button="ENT_SRT">ENT/SRT</button>
<button data-button="EXT_STP">EXT/STP</button>
</div>

<h2>Settings</h2>
<table>
<tr><th>Unit</th><td>{{.Live.Unit}}</td></tr>
<tr><th>Calibration factor</th><td>{{printf "%.2f" .Live.CalibrationFactor}}</td></tr>
<tr><th>Lookup table</th><td>{{len .Live.Table}} points</td></tr>
<tr><th>Log</th><td>{{.LogEntries}} entries (<a href="/export.csv">download</a>)</td></tr>
</table>
{{end}}

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Telemetry</th><td>{{.Config.Source}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Session</th><td>{{.SessionID}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Buttons</th><td>{{if .Buttons.Baselined}}ready{{else}}not ready{{end}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  var reading = document.getElementById("reading");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  document.querySelectorAll("[data-button]").forEach(function(el) {
    el.addEventListener("click", function() {
      fetch("/api/button", {
        method: "POST",
        headers: { "Content-Type": "application/json" },
        body: JSON.stringify({ button: el.dataset.button })
      }).then(function() { if (!window.radmonLive) location.reload(); });
    });
  });

  function connect() {
    var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
    ws.onopen = function() { setDot("ok", "live"); window.radmonLive = true; };
    ws.onclose = function() {
      setDot("err", "offline");
      window.radmonLive = false;
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(ev) {
      try {
        var msg = JSON.parse(ev.data);
        if (!msg.status) return;
        var s = msg.status;
        if (s.menu && s.menu.screen !== window.radmonScreen) {
          if (window.radmonScreen) { location.reload(); return; }
          window.radmonScreen = s.menu.screen;
        }
        reading.textContent = s.radiation.display || "--";
        reading.className = "reading " + (s.alarm.active ? "alarm" + (s.alarm.blink ? " blink" : "") : "normal");
        document.getElementById("cps").textContent = s.radiation.cps + " cps";
        document.getElementById("tc").textContent = s.radiation.time_constant;
        document.getElementById("cum").textContent = s.radiation.cumulative_display;
        document.getElementById("samples").textContent = s.radiation.samples;
      } catch (e) {}
    };
  }
  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
