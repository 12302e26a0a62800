package templates

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"
	"github.com/patchme-dev/patchme/internal/model"
	"github.com/patchme-dev/patchme/internal/status"
)

const pageHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>PatchMe</title>
<style>
body{font-family:system-ui,sans-serif;margin:0;background:#0f1115;color:#e3e3e3}
header{padding:1rem 2rem;background:#161a22;display:flex;justify-content:space-between;align-items:center}
main{padding:2rem;max-width:1100px;margin:0 auto}
.cards{display:flex;gap:1rem;margin-bottom:2rem}
.card{background:#161a22;border-radius:8px;padding:1rem 1.5rem;min-width:8rem}
.card .num{font-size:2rem;font-weight:700}
table{width:100%;border-collapse:collapse;background:#161a22;border-radius:8px}
th,td{text-align:left;padding:.6rem 1rem;border-bottom:1px solid #232833}
.status-ok{color:#4ade80}
.status-warning{color:#fbbf24}
form{max-width:20rem;margin:6rem auto;display:flex;flex-direction:column;gap:.8rem}
input{padding:.6rem;border-radius:6px;border:1px solid #232833;background:#0f1115;color:#e3e3e3}
button{padding:.6rem;border-radius:6px;border:0;background:#3b82f6;color:#fff;cursor:pointer}
</style>
</head>
<body>
`

const pageFoot = "</body>\n</html>\n"

// Dashboard renders the full dashboard page with status counts and the
// systems table, warnings first.
func Dashboard(systems []model.System, baselines []model.Baseline, counts model.StatusCounts) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, pageHead); err != nil {
			return err
		}
		fmt.Fprintf(w, `<header><strong>PatchMe</strong><nav><a href="/api/logout">Log out</a></nav></header>`)
		fmt.Fprintf(w, `<main><div class="cards">`)
		fmt.Fprintf(w, `<div class="card"><div class="num">%d</div>Systems</div>`, counts.Total)
		fmt.Fprintf(w, `<div class="card"><div class="num status-ok">%d</div>Ok</div>`, counts.Ok)
		fmt.Fprintf(w, `<div class="card"><div class="num status-warning">%d</div>Warnings</div>`, counts.Warnings)
		fmt.Fprintf(w, `</div>`)

		fmt.Fprintf(w, `<table><thead><tr><th>Status</th><th>Name</th><th>Hostname</th><th>Tags</th><th>Last seen</th></tr></thead><tbody>`)
		sorted := SortSystems(systems, baselines, status.Evaluate)
		for i := range sorted {
			sys := &sorted[i]
			st := status.Evaluate(sys, baselines)
			fmt.Fprintf(w, `<tr><td class="%s">%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
				StatusClass(st), html.EscapeString(string(st)),
				html.EscapeString(sys.Name),
				html.EscapeString(sys.Hostname),
				html.EscapeString(TagNames(sys.Tags)),
				html.EscapeString(FormatAge(sys.LastSeen)),
			)
		}
		fmt.Fprintf(w, `</tbody></table></main>`)
		_, err := io.WriteString(w, pageFoot)
		return err
	})
}

// Login renders the login form.
func Login() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, pageHead); err != nil {
			return err
		}
		fmt.Fprint(w, `<form method="post" action="/api/login" onsubmit="login(event)">
<h1>PatchMe</h1>
<input name="email" type="email" placeholder="Email" required>
<input name="password" type="password" placeholder="Password" required>
<button type="submit">Log in</button>
</form>
<script>
async function login(e){
e.preventDefault();
const f=e.target;
const res=await fetch('/api/login',{method:'POST',headers:{'Content-Type':'application/json'},body:JSON.stringify({email:f.email.value,password:f.password.value})});
if(res.ok){location.href='/';}else{f.querySelector('button').textContent='Invalid credentials';}
}
</script>
`)
		_, err := io.WriteString(w, pageFoot)
		return err
	})
}
