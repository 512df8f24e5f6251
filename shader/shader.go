package shader

import (
	"fmt"
	"os"
	"path/filepath"
)

// ────────────────────────────────── Desktop GL ──────────────────────────────────

// The proxy cube is drawn by the host with u_mvp. The ray is rebuilt in the
// fragment stage from the orbit angles, so only clip-space position is passed.
const volumeVertexShaderSource = `#version 430 core
layout (location = 0) in vec3 in_position;
uniform mat4 u_mvp;
out vec2 frag_ndc;
void main() {
    vec4 p = u_mvp * vec4(in_position, 1.0);
    frag_ndc = p.xy / p.w;
    gl_Position = p;
}
`

const volumeFragmentShaderSource = `#version 430 core
in  vec2 frag_ndc;
out vec4 fragColor;

layout (location = 20) uniform float azimuth;
layout (location = 21) uniform float elevation;
layout (location = 22) uniform float clipPlaneDepth;
layout (location = 23) uniform float clip;
layout (location = 24) uniform float dither;
layout (location = 25) uniform float opacityFactor;
layout (location = 26) uniform float lightFactor;
layout (location = 27) uniform sampler3D volumeTex;
layout (location = 28) uniform sampler1D rampTex;

const int   MAX_STEPS = 512;
const float STEP      = 1.0 / 256.0;
const float EYE_DIST  = 2.5;

// Camera on a sphere around the unit cube centred at the origin.
mat3 orbit(out vec3 eye) {
    float az = radians(azimuth);
    float el = radians(elevation);
    eye = EYE_DIST * vec3(cos(el) * sin(az), sin(el), cos(el) * cos(az));
    vec3 fwd   = normalize(-eye);
    vec3 right = normalize(cross(fwd, vec3(0.0, 1.0, 0.0)) + vec3(1e-5, 0.0, 0.0));
    vec3 up    = cross(right, fwd);
    return mat3(right, up, fwd);
}

bool hitBox(vec3 ro, vec3 rd, out float t0, out float t1) {
    vec3 inv  = 1.0 / rd;
    vec3 tlo  = (vec3(-0.5) - ro) * inv;
    vec3 thi  = (vec3( 0.5) - ro) * inv;
    vec3 tmin = min(tlo, thi);
    vec3 tmax = max(tlo, thi);
    t0 = max(max(tmin.x, tmin.y), max(tmin.z, 0.0));
    t1 = min(min(tmax.x, tmax.y), tmax.z);
    return t1 > t0;
}

vec3 gradient(vec3 p) {
    float e = 1.0 / 128.0;
    return vec3(
        texture(volumeTex, p + vec3(e, 0.0, 0.0)).r - texture(volumeTex, p - vec3(e, 0.0, 0.0)).r,
        texture(volumeTex, p + vec3(0.0, e, 0.0)).r - texture(volumeTex, p - vec3(0.0, e, 0.0)).r,
        texture(volumeTex, p + vec3(0.0, 0.0, e)).r - texture(volumeTex, p - vec3(0.0, 0.0, e)).r);
}

void main() {
    vec3 eye;
    mat3 cam = orbit(eye);
    vec3 rd  = normalize(cam * vec3(frag_ndc, 1.5));

    float t0, t1;
    if (!hitBox(eye, rd, t0, t1)) {
        discard;
    }

    if (dither > 0.5) {
        float n = fract(sin(dot(gl_FragCoord.xy, vec2(12.9898, 78.233))) * 43758.5453);
        t0 += n * STEP;
    }

    // Clip plane faces the viewer at clipPlaneDepth along the view axis.
    vec3 fwd = cam[2];
    vec4 acc = vec4(0.0);
    float t = t0;
    for (int i = 0; i < MAX_STEPS && t < t1; ++i) {
        vec3 p = eye + rd * t;
        t += STEP;
        if (clip > 0.5 && dot(p, fwd) < clipPlaneDepth) {
            continue;
        }
        vec3 uvw = p + 0.5;
        float s = texture(volumeTex, uvw).r;
        vec4 c = texture(rampTex, s);
        c.a = 1.0 - pow(1.0 - clamp(c.a, 0.0, 1.0), opacityFactor * STEP);

        vec3 g = gradient(uvw);
        if (dot(g, g) > 1e-8) {
            float diffuse = abs(dot(normalize(g), -rd));
            c.rgb *= mix(1.0, diffuse, clamp(lightFactor / 100.0, 0.0, 1.0)) * (1.0 + lightFactor / 100.0);
        }

        acc.rgb += (1.0 - acc.a) * c.a * c.rgb;
        acc.a   += (1.0 - acc.a) * c.a;
        if (acc.a > 0.99) {
            break;
        }
    }
    fragColor = acc;
}
`

// Sources is a vertex and fragment source pair consumed verbatim by the
// program binder.
type Sources struct {
	Vertex   string
	Fragment string
}

// Names of the override files read by Load.
const (
	VertexFile   = "volume.vert"
	FragmentFile = "volume.frag"
)

// ────────────────────────────────── Public API ─────────────────────────────────

// Default returns the built-in ray-casting shader pair.
func Default() Sources {
	return Sources{
		Vertex:   volumeVertexShaderSource,
		Fragment: volumeFragmentShaderSource,
	}
}

// Load reads volume.vert and volume.frag from dir. A missing file falls back
// to the built-in source for that stage; an empty dir returns Default.
func Load(dir string) (Sources, error) {
	src := Default()
	if dir == "" {
		return src, nil
	}
	for name, dst := range map[string]*string{VertexFile: &src.Vertex, FragmentFile: &src.Fragment} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return Sources{}, fmt.Errorf("failed to read shader %s: %w", name, err)
		}
		*dst = string(data)
	}
	return src, nil
}
