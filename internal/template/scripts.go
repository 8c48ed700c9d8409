package template

import (
	"bytes"
	"strings"
)

// ScriptID marks the injected page script so a page is never given two.
const ScriptID = "dailypage-script"

// StyleID marks the injected stylesheet.
const StyleID = "dailypage-style"

func writeScripts(buf *bytes.Buffer) {
	buf.WriteString(`  <script id="` + ScriptID + `">
    // Catalogue toggle. Labels come from data attributes on #show_hide.
    (function() {
      function swap(show) {
        var link = document.getElementById('show_hide');
        var list = document.getElementById('catalogue');
        if (!link || !list) return;
        link.textContent = show ? link.getAttribute('data-hide-label') : link.getAttribute('data-show-label');
        link.setAttribute('href', show ? 'javascript:hideCatalogue()' : 'javascript:showCatalogue()');
        list.style.display = show ? '' : 'none';
      }
      window.showCatalogue = function() { swap(true); };
      window.hideCatalogue = function() { swap(false); };
    })();

    // Back to top
    document.addEventListener('DOMContentLoaded', function() {
      var top = document.querySelector('.cd-top');
      if (!top) return;
      var offset = parseInt(top.getAttribute('data-offset'), 10) || 300;
      var fadeOffset = parseInt(top.getAttribute('data-offset-opacity'), 10) || 1200;
      var duration = parseInt(top.getAttribute('data-duration'), 10) || 700;

      function scrolled() {
        return window.pageYOffset || document.documentElement.scrollTop || document.body.scrollTop || 0;
      }

      window.addEventListener('scroll', function() {
        var y = scrolled();
        if (y > offset) {
          top.classList.add('cd-is-visible');
        } else {
          top.classList.remove('cd-is-visible', 'cd-fade-out');
        }
        if (y > fadeOffset) {
          top.classList.add('cd-fade-out');
        }
      });

      top.addEventListener('click', function(e) {
        e.preventDefault();
        var from = scrolled();
        var start = null;
        function step(ts) {
          if (start === null) start = ts;
          var p = Math.min((ts - start) / duration, 1);
          var eased = 0.5 - Math.cos(p * Math.PI) / 2;
          window.scrollTo(0, from * (1 - eased));
          if (p < 1) window.requestAnimationFrame(step);
        }
        window.requestAnimationFrame(step);
      });
    });
  </script>
`)
}

// HeadAssets returns the stylesheet and the page script that enhanced
// pages need, each as one trimmed element ready to append to <head>.
func HeadAssets() []string {
	var style, script bytes.Buffer
	writeLayoutCSS(&style)
	writeScripts(&script)
	return []string{
		strings.TrimSpace(style.String()),
		strings.TrimSpace(script.String()),
	}
}
